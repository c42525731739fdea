package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Students Management API",
        "description": "REST API for students, classrooms and enrollments",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Students", "description": "Student registry"},
        {"name": "Enrollments", "description": "Classroom-student enrollments"},
        {"name": "Classrooms", "description": "Classroom registry"},
        {"name": "Institutions", "description": "Institution reference data"},
        {"name": "Exports", "description": "Asynchronous CSV/PDF exports"}
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Database unreachable"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and receive an access token",
                "responses": {
                    "200": {"description": "Token issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Authenticated user's profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Profile"}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Auth"],
                "summary": "Change password",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Password updated"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register student",
                "responses": {
                    "201": {"$ref": "#/responses/Envelope"},
                    "409": {"description": "Document number already registered"}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Student detail",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Deactivate student",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/students/{id}/restore": {
            "put": {
                "tags": ["Students"],
                "summary": "Restore student",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/students/status/{status}": {
            "get": {
                "tags": ["Students"],
                "summary": "List students by status",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/students/gender/{gender}": {
            "get": {
                "tags": ["Students"],
                "summary": "List students by gender",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/students/institution/{institutionId}": {
            "get": {
                "tags": ["Students"],
                "summary": "List students of an institution",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/classroom-students": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a student into a classroom",
                "responses": {
                    "201": {"$ref": "#/responses/Envelope"},
                    "409": {"description": "Student already has an active enrollment"}
                }
            }
        },
        "/classroom-students/{id}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Enrollment detail",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            },
            "put": {
                "tags": ["Enrollments"],
                "summary": "Update enrollment",
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "409": {"description": "Student already has an active enrollment"}
                }
            },
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Deactivate enrollment",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/classroom-students/{id}/restore": {
            "put": {
                "tags": ["Enrollments"],
                "summary": "Restore enrollment",
                "responses": {
                    "200": {"$ref": "#/responses/Envelope"},
                    "409": {"description": "Student already has an active enrollment"}
                }
            }
        },
        "/classroom-students/eligible-students": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Active students without an active enrollment",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/classroom-students/student/{studentId}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments of a student",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/classroom-students/classroom/{classroomId}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments of a classroom",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/classroom-students/status/{status}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments by status",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/classroom-students/year/{year}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments of a year",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/classroom-students/period/{period}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments of a period",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/classroom-students/year/{year}/period/{period}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments of a year and period",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/classrooms": {
            "get": {
                "tags": ["Classrooms"],
                "summary": "List classrooms",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            },
            "post": {
                "tags": ["Classrooms"],
                "summary": "Register classroom",
                "responses": {"201": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/classrooms/{id}": {
            "get": {
                "tags": ["Classrooms"],
                "summary": "Classroom detail",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            },
            "put": {
                "tags": ["Classrooms"],
                "summary": "Update classroom",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            },
            "delete": {
                "tags": ["Classrooms"],
                "summary": "Deactivate classroom",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/classrooms/{id}/restore": {
            "put": {
                "tags": ["Classrooms"],
                "summary": "Restore classroom",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/classrooms/{id}/roster": {
            "get": {
                "tags": ["Classrooms"],
                "summary": "Classroom roster",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/institutions": {
            "get": {
                "tags": ["Institutions"],
                "summary": "List institutions",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/institutions/{id}": {
            "get": {
                "tags": ["Institutions"],
                "summary": "Institution detail",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Request an asynchronous export",
                "security": [{"BearerAuth": []}],
                "responses": {"202": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a completed export with a signed token",
                "responses": {
                    "200": {"description": "File stream"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "responses": {
        "Envelope": {
            "description": "Standard response envelope",
            "schema": {"$ref": "#/definitions/ResponseEnvelope"}
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalCount": {"type": "integer"}
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
