package service

// Appreciation maps a numeric average to its qualitative label using the
// fixed national threshold table.
func Appreciation(average float64) string {
	switch {
	case average >= 16:
		return "Tres Bien"
	case average >= 14:
		return "Bien"
	case average >= 12:
		return "Assez Bien"
	case average >= 10:
		return "Passable"
	case average >= 8:
		return "Insuffisant"
	default:
		return "Faible"
	}
}
