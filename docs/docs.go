// Package docs holds the OpenAPI description of the HTTP transport, in the
// layout swag init produces. Regenerate with:
//
//	swag init -g internal/transport/http/http.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/dispatch": {
            "post": {
                "description": "Accepts a JSON request, or raw audio bytes with the audio Content-Type.\nThe text is normalized into a command (keyword matcher, AI, or both per mode),\nexecuted, recorded in history, and the result is returned to the caller.",
                "consumes": ["application/json", "audio/wav", "audio/ogg"],
                "produces": ["application/json"],
                "tags": ["dispatch"],
                "summary": "Dispatch a text or voice request",
                "parameters": [
                    {
                        "description": "Dispatch request (JSON). For raw audio, POST the bytes directly with the appropriate Content-Type.",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/message.Request"}
                    },
                    {
                        "type": "string",
                        "description": "Sender identifier (used with raw audio uploads)",
                        "name": "X-Deskpilot-Source",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "voice, ai or keyword (used with raw audio uploads)",
                        "name": "X-Deskpilot-Mode",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Dispatch result",
                        "schema": {"$ref": "#/definitions/message.Response"}
                    },
                    "400": {
                        "description": "Invalid request body",
                        "schema": {"type": "string"}
                    },
                    "500": {
                        "description": "Internal processing error",
                        "schema": {"type": "string"}
                    }
                }
            }
        }
    },
    "definitions": {
        "command.Command": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "description": {"type": "string"},
                "parameters": {"type": "object", "additionalProperties": {}},
                "steps": {"type": "array", "items": {"$ref": "#/definitions/command.Step"}}
            }
        },
        "command.Result": {
            "type": "object",
            "properties": {
                "data": {"type": "object", "additionalProperties": {}},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "command.Step": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "parameters": {"type": "object", "additionalProperties": {}}
            }
        },
        "message.Request": {
            "type": "object",
            "properties": {
                "audio": {"type": "array", "items": {"type": "integer"}},
                "content_type": {"type": "string"},
                "id": {"type": "string"},
                "mode": {"type": "string", "enum": ["voice", "ai", "keyword"]},
                "response_mode": {"type": "string", "enum": ["none", "text", "audio", "text+audio"]},
                "source": {"type": "string"},
                "text": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "message.Response": {
            "type": "object",
            "properties": {
                "command": {"$ref": "#/definitions/command.Command"},
                "error": {"type": "string"},
                "language": {"type": "string"},
                "path": {"type": "string", "enum": ["keyword", "ai", "none"]},
                "request_id": {"type": "string"},
                "response_audio": {"type": "string"},
                "response_content_type": {"type": "string"},
                "response_text": {"type": "string"},
                "result": {"$ref": "#/definitions/command.Result"},
                "transcript": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "deskpilot API",
	Description:      "Desktop automation assistant: dispatch text or voice requests to local handlers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
