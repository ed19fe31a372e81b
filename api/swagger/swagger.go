package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "IFMIS Helpdesk API",
        "description": "Password reset request intake, tracking and staff helpdesk for IFMIS.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {
            "name": "Public",
            "description": "Request submission and tracking"
        },
        {
            "name": "Authentication",
            "description": "Staff session boundary"
        },
        {
            "name": "Staff",
            "description": "Admin-group request management and audit log"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check (PostgreSQL and Redis)",
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "A dependency is unreachable"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": [
                    "text/plain"
                ],
                "responses": {
                    "200": {
                        "description": "Metrics"
                    }
                }
            }
        },
        "/": {
            "get": {
                "tags": [
                    "Public"
                ],
                "summary": "Describe the reset request form",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Public"
                ],
                "summary": "Submit a password reset request",
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "429": {
                        "description": "Rate limited",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "full_name",
                        "in": "formData",
                        "type": "string",
                        "required": true,
                        "description": ""
                    },
                    {
                        "name": "department",
                        "in": "formData",
                        "type": "string",
                        "required": true,
                        "description": ""
                    },
                    {
                        "name": "email",
                        "in": "formData",
                        "type": "string",
                        "required": true,
                        "description": ""
                    },
                    {
                        "name": "uploaded_file",
                        "in": "formData",
                        "type": "file",
                        "required": true,
                        "description": "Signed reset form (PDF, JPG or PNG, max 5 MB)"
                    }
                ],
                "consumes": [
                    "multipart/form-data"
                ]
            }
        },
        "/track/": {
            "get": {
                "tags": [
                    "Public"
                ],
                "summary": "Track a request by reference code",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown reference code",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "ref",
                        "in": "query",
                        "type": "string",
                        "required": true,
                        "description": "Reference code"
                    }
                ]
            },
            "post": {
                "tags": [
                    "Public"
                ],
                "summary": "Send a message about a request",
                "responses": {
                    "303": {
                        "description": "Redirect to /track/?ref=<code>"
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown reference code",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "ref_code",
                        "in": "formData",
                        "type": "string",
                        "required": true,
                        "description": ""
                    },
                    {
                        "name": "content",
                        "in": "formData",
                        "type": "string",
                        "required": true,
                        "description": ""
                    }
                ],
                "consumes": [
                    "application/x-www-form-urlencoded"
                ]
            }
        },
        "/uploads/{filename}": {
            "get": {
                "tags": [
                    "Public"
                ],
                "summary": "Fetch an uploaded document",
                "responses": {
                    "200": {
                        "description": "File"
                    },
                    "404": {
                        "description": "Not found or not owned",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "filename",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": ""
                    },
                    {
                        "name": "ref",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "Reference code of the owning request"
                    },
                    {
                        "name": "download",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "1 to download as attachment"
                    }
                ]
            }
        },
        "/staff/login/": {
            "get": {
                "tags": [
                    "Authentication"
                ],
                "summary": "Describe the staff login form",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "next",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": ""
                    }
                ]
            },
            "post": {
                "tags": [
                    "Authentication"
                ],
                "summary": "Authenticate staff and set the session cookie",
                "responses": {
                    "200": {
                        "description": "OK (JSON clients)",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "303": {
                        "description": "Redirect to next (form clients)"
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Invalid credentials",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "403": {
                        "description": "Inactive account",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "username",
                        "in": "formData",
                        "type": "string",
                        "required": true,
                        "description": ""
                    },
                    {
                        "name": "password",
                        "in": "formData",
                        "type": "string",
                        "required": true,
                        "description": ""
                    },
                    {
                        "name": "next",
                        "in": "formData",
                        "type": "string",
                        "required": false,
                        "description": ""
                    }
                ],
                "consumes": [
                    "application/x-www-form-urlencoded",
                    "application/json"
                ]
            }
        },
        "/staff/logout/": {
            "post": {
                "tags": [
                    "Authentication"
                ],
                "summary": "End the staff session",
                "responses": {
                    "302": {
                        "description": "Redirect to login"
                    }
                }
            }
        },
        "/staff/dashboard/": {
            "get": {
                "tags": [
                    "Staff"
                ],
                "summary": "List reset requests",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid filter",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "302": {
                        "description": "Login required"
                    }
                },
                "parameters": [
                    {
                        "name": "q",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": ""
                    },
                    {
                        "name": "day",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": ""
                    },
                    {
                        "name": "month",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": ""
                    },
                    {
                        "name": "year",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": ""
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": ""
                    }
                ]
            }
        },
        "/staff/request/{ref_code}/": {
            "get": {
                "tags": [
                    "Staff"
                ],
                "summary": "Show a request with its thread",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown reference code",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "ref_code",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": ""
                    }
                ]
            },
            "post": {
                "tags": [
                    "Staff"
                ],
                "summary": "Act on a request",
                "responses": {
                    "303": {
                        "description": "Redirect"
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown reference code",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "ref_code",
                        "in": "path",
                        "type": "string",
                        "required": true,
                        "description": ""
                    },
                    {
                        "name": "action",
                        "in": "formData",
                        "type": "string",
                        "required": true,
                        "description": "reply, mark_processed, mark_pending or delete"
                    },
                    {
                        "name": "content",
                        "in": "formData",
                        "type": "string",
                        "required": false,
                        "description": "Reply text"
                    }
                ],
                "consumes": [
                    "application/x-www-form-urlencoded"
                ]
            }
        },
        "/staff/process/{id}/": {
            "post": {
                "tags": [
                    "Staff"
                ],
                "summary": "Mark a request processed",
                "responses": {
                    "303": {
                        "description": "Redirect to dashboard"
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "integer",
                        "required": true,
                        "description": ""
                    }
                ]
            }
        },
        "/staff/delete/{id}/": {
            "get": {
                "tags": [
                    "Staff"
                ],
                "summary": "Show the request a delete would remove",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "integer",
                        "required": true,
                        "description": ""
                    }
                ]
            },
            "post": {
                "tags": [
                    "Staff"
                ],
                "summary": "Delete a request",
                "responses": {
                    "303": {
                        "description": "Redirect to dashboard"
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "integer",
                        "required": true,
                        "description": ""
                    }
                ]
            }
        },
        "/staff/bulk-delete/": {
            "post": {
                "tags": [
                    "Staff"
                ],
                "summary": "Delete several requests",
                "responses": {
                    "303": {
                        "description": "Redirect to dashboard"
                    },
                    "400": {
                        "description": "Empty selection",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "selected_ids",
                        "in": "formData",
                        "type": "array",
                        "items": {
                            "type": "integer"
                        },
                        "collectionFormat": "multi",
                        "required": true
                    }
                ],
                "consumes": [
                    "application/x-www-form-urlencoded"
                ]
            }
        },
        "/staff/audit/": {
            "get": {
                "tags": [
                    "Staff"
                ],
                "summary": "List audit log entries",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid filter",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "admin",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": ""
                    },
                    {
                        "name": "action",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": ""
                    },
                    {
                        "name": "ref",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": ""
                    },
                    {
                        "name": "date",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false,
                        "description": ""
                    }
                ]
            }
        },
        "/staff/audit/export": {
            "get": {
                "tags": [
                    "Staff"
                ],
                "summary": "Export audit log entries",
                "responses": {
                    "200": {
                        "description": "File"
                    },
                    "400": {
                        "description": "Invalid filter or format",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": "csv or pdf"
                    },
                    {
                        "name": "admin",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": ""
                    },
                    {
                        "name": "action",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": ""
                    },
                    {
                        "name": "ref",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": ""
                    },
                    {
                        "name": "date",
                        "in": "query",
                        "type": "string",
                        "required": false,
                        "description": ""
                    }
                ],
                "produces": [
                    "text/csv",
                    "application/pdf"
                ]
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                },
                "total_pages": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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
