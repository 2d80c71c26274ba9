package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Scolaris API",
        "description": "School administration API with report card generation",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and token lifecycle"},
        {"name": "Terms", "description": "Grading periods"},
        {"name": "Classes", "description": "Class subject mappings"},
        {"name": "Enrollments", "description": "Student registrations"},
        {"name": "Grades", "description": "Assessment entries"},
        {"name": "Bulletins", "description": "Report card generation and reading"}
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Expired or revoked token"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms": {
            "get": {
                "tags": ["Terms"],
                "summary": "List terms",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "academicYear", "in": "query", "type": "string"},
                    {"name": "isActive", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{id}": {
            "get": {
                "tags": ["Terms"],
                "summary": "Get term",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/classes/{id}/subjects": {
            "get": {
                "tags": ["Classes"],
                "summary": "List subjects of a class",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Classes"],
                "summary": "Replace subjects of a class",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceClassSubjectsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "academicYear", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Create enrollment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEnrollmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Active enrollment already exists"}
                }
            }
        },
        "/enrollments/{id}/status": {
            "patch": {
                "tags": ["Enrollments"],
                "summary": "Update enrollment status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateEnrollmentStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/grades": {
            "get": {
                "tags": ["Grades"],
                "summary": "List grade entries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "classSubjectId", "in": "query", "type": "string"},
                    {"name": "termId", "in": "query", "type": "string"},
                    {"name": "kind", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Grades"],
                "summary": "Record grade entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateGradeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/grades/{id}": {
            "delete": {
                "tags": ["Grades"],
                "summary": "Delete grade entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/bulletins/generate": {
            "post": {
                "tags": ["Bulletins"],
                "summary": "Generate bulletins for a class and term",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateBulletinsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Class or term not found"},
                    "412": {"description": "No active enrollments or no subjects configured"}
                }
            }
        },
        "/bulletins": {
            "get": {
                "tags": ["Bulletins"],
                "summary": "List bulletins for a class and term",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "classId", "in": "query", "required": true, "type": "string"},
                    {"name": "termId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK, ordered by rank", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bulletins/{id}": {
            "get": {
                "tags": ["Bulletins"],
                "summary": "Get bulletin",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/bulletins/{id}/comments": {
            "patch": {
                "tags": ["Bulletins"],
                "summary": "Update bulletin comments",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateBulletinCommentsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/bulletins/{id}/pdf": {
            "get": {
                "tags": ["Bulletins"],
                "summary": "Export bulletin as PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF document"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/students/{id}/bulletins": {
            "get": {
                "tags": ["Bulletins"],
                "summary": "List bulletins of a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK, ordered by term sequence", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshTokenRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "ReplaceClassSubjectsRequest": {
            "type": "object",
            "properties": {
                "subjects": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "subject_id": {"type": "string"},
                            "coefficient": {"type": "integer", "minimum": 1},
                            "teacher_id": {"type": "string"}
                        },
                        "required": ["subject_id", "coefficient"]
                    }
                }
            },
            "required": ["subjects"]
        },
        "CreateEnrollmentRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "class_id": {"type": "string"},
                "academic_year": {"type": "string"}
            },
            "required": ["student_id", "class_id", "academic_year"]
        },
        "UpdateEnrollmentStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["ACTIVE", "TRANSFERRED", "WITHDRAWN", "GRADUATED"]}
            },
            "required": ["status"]
        },
        "CreateGradeRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "class_subject_id": {"type": "string"},
                "term_id": {"type": "string"},
                "kind": {"type": "string", "enum": ["DEVOIR", "INTERROGATION", "COMPOSITION"]},
                "value": {"type": "number", "minimum": 0, "maximum": 20},
                "label": {"type": "string"}
            },
            "required": ["student_id", "class_subject_id", "term_id", "kind", "value"]
        },
        "GenerateBulletinsRequest": {
            "type": "object",
            "properties": {
                "class_id": {"type": "string"},
                "term_id": {"type": "string"}
            },
            "required": ["class_id", "term_id"]
        },
        "UpdateBulletinCommentsRequest": {
            "type": "object",
            "properties": {
                "teacher_comment": {"type": "string"},
                "principal_comment": {"type": "string"},
                "decision": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
