package api

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/schemas": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["schemas"],
                "summary": "List schemas",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/api.SchemaInfo"}}}
                }
            }
        },
        "/schemas/{name}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["schemas"],
                "summary": "Get a schema",
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SchemaInfo"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/decode/{schema}": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/octet-stream", "text/plain"],
                "produces": ["application/json", "application/x-msgpack"],
                "tags": ["codec"],
                "summary": "Decode a payload",
                "parameters": [
                    {"type": "string", "name": "schema", "in": "path", "required": true},
                    {"type": "boolean", "name": "strict", "in": "query"},
                    {"name": "body", "in": "body", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.DecodeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/encode/{schema}": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json", "application/octet-stream"],
                "tags": ["codec"],
                "summary": "Encode a record",
                "parameters": [
                    {"type": "string", "name": "schema", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.EncodeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/records/{schema}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "List stored payloads",
                "parameters": [{"type": "string", "name": "schema", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"type": "string"}}}}
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/octet-stream", "text/plain"],
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "Store a payload",
                "parameters": [
                    {"type": "string", "name": "schema", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.StoredResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/records/{schema}/{id}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json", "application/x-msgpack"],
                "tags": ["records"],
                "summary": "Get a stored payload",
                "parameters": [
                    {"type": "string", "name": "schema", "in": "path", "required": true},
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.RecordResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["records"],
                "summary": "Delete a stored payload",
                "parameters": [
                    {"type": "string", "name": "schema", "in": "path", "required": true},
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"type": "string"}
            }
        },
        "api.FieldInfo": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "type": {"type": "string"},
                "offset": {"type": "integer"},
                "width": {"type": "integer"},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/api.FieldInfo"}}
            }
        },
        "api.SchemaInfo": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "size": {"type": "integer"},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/api.FieldInfo"}}
            }
        },
        "api.DecodeResponse": {
            "type": "object",
            "properties": {
                "schema": {"type": "string"},
                "consumed": {"type": "integer"},
                "record": {"type": "object"}
            }
        },
        "api.EncodeResponse": {
            "type": "object",
            "properties": {
                "schema": {"type": "string"},
                "hex": {"type": "string"},
                "size": {"type": "integer"}
            }
        },
        "api.StoredResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "schema": {"type": "string"},
                "size": {"type": "integer"}
            }
        },
        "api.RecordResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "schema": {"type": "string"},
                "created_at": {"type": "string"},
                "hex": {"type": "string"},
                "record": {"type": "object"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "borsh REST API",
	Description:      "Decode and encode Borsh-style fixed-layout records and keep payloads in a local store.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
