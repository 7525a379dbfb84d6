// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go
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
        "/auth/register": {
            "post": {"tags": ["auth"], "summary": "Register a new user", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/auth/login": {
            "post": {"tags": ["auth"], "summary": "Login", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}
        },
        "/auth/logout": {
            "post": {"tags": ["auth"], "summary": "Logout", "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content"}, "401": {"description": "Unauthorized"}}}
        },
        "/cart": {
            "get": {"tags": ["cart"], "summary": "Get cart", "security": [{"BearerAuth": []}], "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}},
            "post": {"tags": ["cart"], "summary": "Add item to cart", "security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"in": "header", "name": "Idempotency-Key", "type": "string", "description": "De-duplicates retried requests"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.addItemRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}},
            "delete": {"tags": ["cart"], "summary": "Clear cart", "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}}
        },
        "/cart/{productId}": {
            "put": {"tags": ["cart"], "summary": "Set item quantity", "security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "productId", "type": "string", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.setQuantityRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["cart"], "summary": "Remove item from cart", "security": [{"BearerAuth": []}], "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "productId", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/products": {
            "get": {"tags": ["products"], "summary": "List products", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["products"], "summary": "Create product", "security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.productRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}}
        },
        "/products/{id}": {
            "get": {"tags": ["products"], "summary": "Get product", "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["products"], "summary": "Update product", "security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.productRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["products"], "summary": "Delete product", "security": [{"BearerAuth": []}], "produces": ["application/json"],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/users/me/password": {
            "put": {"tags": ["users"], "summary": "Change password", "security": [{"BearerAuth": []}], "consumes": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.changePasswordRequest"}}],
                "responses": {"204": {"description": "No Content"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}
        },
        "/users/{id}": {
            "delete": {"tags": ["users"], "summary": "Delete user", "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/health": {"get": {"tags": ["health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}},
        "/health/ready": {"get": {"tags": ["health"], "summary": "Readiness probe", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}}
    },
    "definitions": {
        "handler.registerRequest": {"type": "object", "required": ["email", "name", "password"],
            "properties": {"name": {"type": "string"}, "email": {"type": "string"}, "password": {"type": "string"}, "role": {"type": "string", "enum": ["admin", "user"]}}},
        "handler.loginRequest": {"type": "object", "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "handler.addItemRequest": {"type": "object", "required": ["product_id"],
            "properties": {"product_id": {"type": "string"}, "quantity": {"type": "integer"}}},
        "handler.setQuantityRequest": {"type": "object", "required": ["quantity"],
            "properties": {"quantity": {"type": "integer"}}},
        "handler.productRequest": {"type": "object", "required": ["name"],
            "properties": {"name": {"type": "string"}, "description": {"type": "string"}, "price": {"type": "number"}, "category": {"type": "string"}, "stock": {"type": "integer"}, "image_url": {"type": "string"}}},
        "handler.changePasswordRequest": {"type": "object", "required": ["current_password", "new_password"],
            "properties": {"current_password": {"type": "string"}, "new_password": {"type": "string"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Storefront API",
	Description:      "Products, accounts and shopping carts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
