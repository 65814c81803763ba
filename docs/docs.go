// Package docs registers the OpenAPI document served by http-swagger.
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
        "/accounts": {
            "get": {"tags": ["accounts"], "summary": "List accounts", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["accounts"], "summary": "Open an account", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/accounts/deposit": {
            "post": {"tags": ["ledger"], "summary": "Deposit money", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/accounts/withdraw": {
            "post": {"tags": ["ledger"], "summary": "Withdraw money", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/accounts/send": {
            "post": {"tags": ["ledger"], "summary": "Transfer money", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/accounts/apply-interest": {
            "post": {"tags": ["ledger"], "summary": "Apply monthly interest", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/accounts/{id}": {
            "get": {"tags": ["accounts"], "summary": "Get account by ID", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["admin"], "summary": "Override account fields", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["accounts"], "summary": "Delete account", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/accounts/{id}/block": {
            "patch": {"tags": ["ledger"], "summary": "Block account", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/accounts/{id}/close": {
            "patch": {"tags": ["ledger"], "summary": "Close account", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/accounts/{id}/info": {
            "patch": {"tags": ["accounts"], "summary": "Update customer information", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}
        },
        "/accounts/{id}/statement": {
            "get": {"tags": ["accounts"], "summary": "Account statement", "produces": ["application/json", "text/plain", "application/pdf"], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Ledger API",
	Description:      "Account ledger with deposits, withdrawals, transfers and interest",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
