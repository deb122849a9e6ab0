package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Teachers Admin API",
        "description": "Back-office gateway for the teachers directory",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [
        {"Bearer": []}
    ],
    "tags": [
        {"name": "Teachers", "description": "Teachers directory and creation form"}
    ],
    "paths": {
        "/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List teachers",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string", "description": "Filter by name"},
                    {"name": "lavozim", "in": "query", "type": "string", "description": "Filter by position"},
                    {"name": "college", "in": "query", "type": "string", "description": "Filter by department"},
                    {"name": "page", "in": "query", "type": "integer", "description": "1-based page"},
                    {"name": "size", "in": "query", "type": "integer", "enum": [10, 20, 30, 50]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Backend unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Teachers"],
                "summary": "Create teacher",
                "description": "Uploads the photo, then each document in order, then creates the teacher.",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "fullName", "in": "formData", "type": "string", "required": true},
                    {"name": "email", "in": "formData", "type": "string", "required": true},
                    {"name": "phoneNumber", "in": "formData", "type": "string", "required": true},
                    {"name": "age", "in": "formData", "type": "string", "required": true},
                    {"name": "gender", "in": "formData", "type": "string", "enum": ["male", "female"], "required": true},
                    {"name": "password", "in": "formData", "type": "string", "required": true},
                    {"name": "departmentId", "in": "formData", "type": "string", "required": true},
                    {"name": "lavozmId", "in": "formData", "type": "string", "required": true},
                    {"name": "biography", "in": "formData", "type": "string"},
                    {"name": "input", "in": "formData", "type": "string"},
                    {"name": "profession", "in": "formData", "type": "string"},
                    {"name": "image", "in": "formData", "type": "file"},
                    {"name": "pdfs", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed or attachment rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Backend failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/options": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Search department or position options",
                "parameters": [
                    {"name": "kind", "in": "query", "type": "string", "enum": ["department", "position"], "required": true},
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "value", "in": "query", "type": "string", "enum": ["id", "name"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/export": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Export the current listing page",
                "produces": ["application/pdf", "text/csv"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"]},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "lavozim", "in": "query", "type": "string"},
                    {"name": "college", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Roster file", "schema": {"type": "file"}}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
