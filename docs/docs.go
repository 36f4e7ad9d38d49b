// Package docs registers the OpenAPI description served by swagger-ui.
// Regenerate with `swag init -g cmd/api/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/captcha": {
            "get": {
                "description": "Load the portal in a fresh browser and return its CAPTCHA image as base64",
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Get a CAPTCHA",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.CaptchaResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.CaptchaResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/models.CaptchaResponse"}}
                }
            }
        },
        "/search": {
            "post": {
                "description": "Submit the portal form with a solved CAPTCHA and store the outcome in the session.\nForm posts are redirected to the result page; JSON posts get the outcome directly.",
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Search a case",
                "parameters": [
                    {"description": "Search parameters", "name": "query", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.SearchQuery"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ResultResponse"}},
                    "303": {"description": "Redirect to /api/v1/result"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/result": {
            "get": {
                "description": "Return the result and error stored by the session's last search",
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Get the last result",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ResultResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "Forget the result and error stored by the session's last search",
                "tags": ["Search"],
                "summary": "Clear the last result",
                "responses": {
                    "204": {"description": "No Content"},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/result/pdf": {
            "get": {
                "description": "Render the session's stored result as a downloadable PDF",
                "produces": ["application/pdf"],
                "tags": ["Search"],
                "summary": "Export the last result as PDF",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/history": {
            "get": {
                "description": "Return the most recent search attempts, newest first, without page markup",
                "produces": ["application/json"],
                "tags": ["History"],
                "summary": "List recent searches",
                "parameters": [
                    {"type": "integer", "default": 50, "description": "Maximum entries", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Admin token when configured", "name": "X-Admin-Token", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.HistoryResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/browser/stats": {
            "get": {
                "description": "Live and total browser sessions and launch failures",
                "produces": ["application/json"],
                "tags": ["Browser"],
                "summary": "Get browser session statistics",
                "parameters": [
                    {"type": "string", "description": "Admin token when configured", "name": "X-Admin-Token", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "models.SearchQuery": {
            "type": "object",
            "properties": {
                "case_type": {"type": "string", "example": "CRL.A."},
                "case_number": {"type": "string", "example": "1234"},
                "filing_year": {"type": "string", "example": "2023"},
                "captcha": {"type": "string", "example": "x7k2p"},
                "captcha_solution": {"type": "string", "description": "alias of captcha"}
            }
        },
        "models.CaseResult": {
            "type": "object",
            "properties": {
                "petitioner": {"type": "string", "example": "Jane Doe"},
                "respondent": {"type": "string", "example": "State of Delhi"},
                "next_hearing_date": {"type": "string", "example": "12-03-2025"},
                "judgment_pdf_url": {"type": "string"}
            }
        },
        "models.CaptchaResponse": {
            "type": "object",
            "properties": {
                "image_bytes_base64": {"type": "string", "example": "iVBORw0KGgo..."},
                "mime_type": {"type": "string", "example": "image/png"},
                "error": {"type": "string"}
            }
        },
        "models.ResultResponse": {
            "type": "object",
            "properties": {
                "result_data": {"$ref": "#/definitions/models.CaseResult"},
                "error_data": {"type": "string"}
            }
        },
        "models.SearchLogEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "case_type": {"type": "string"},
                "case_number": {"type": "string"},
                "filing_year": {"type": "string"},
                "searched_at": {"type": "string"}
            }
        },
        "models.HistoryResponse": {
            "type": "object",
            "properties": {
                "entries": {"type": "array", "items": {"$ref": "#/definitions/models.SearchLogEntry"}},
                "count": {"type": "integer", "example": 10}
            }
        },
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Bad Request"},
                "message": {"type": "string", "example": "No result found to export"},
                "code": {"type": "string", "example": "NO_RESULT"},
                "timestamp": {"type": "string", "example": "2024-01-15T10:30:00Z"},
                "path": {"type": "string", "example": "/api/v1/result/pdf"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Case Fetcher API",
	Description:      "Looks up court case details on the eCourts portal with a human-solved CAPTCHA",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
