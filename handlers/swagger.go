package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the country service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>country-service — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the country API surface.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "country-service", "version": "v0.1.0" },
  "paths": {
    "/countries/refresh": {
      "post": { "summary": "Fetch external sources and refresh all country data", "responses": { "200": { "description": "refresh committed" }, "400": { "description": "no records passed validation" }, "409": { "description": "refresh already in progress" }, "503": { "description": "external source unavailable" } } }
    },
    "/countries": {
      "get": { "summary": "List countries with optional filters and sorting", "parameters": [ {"name":"name","in":"query","schema":{"type":"string"}}, {"name":"capital","in":"query","schema":{"type":"string"}}, {"name":"region","in":"query","schema":{"type":"string"}}, {"name":"population","in":"query","schema":{"type":"integer"}}, {"name":"currency_code","in":"query","schema":{"type":"string"}}, {"name":"currency","in":"query","schema":{"type":"string"}}, {"name":"exchange_rate","in":"query","schema":{"type":"number"}}, {"name":"estimated_gdp","in":"query","schema":{"type":"number"}}, {"name":"sort","in":"query","schema":{"type":"string"}} ], "responses": { "200": { "description": "matching countries" }, "400": { "description": "invalid filter or sort" }, "404": { "description": "no countries match" } } }
    },
    "/countries/{name}": {
      "get": { "summary": "Get one country by case-insensitive name", "responses": { "200": { "description": "country record" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete one country by case-insensitive name", "responses": { "204": { "description": "deleted" }, "404": { "description": "not found" } } }
    },
    "/countries/image": {
      "get": { "summary": "Serve the last generated summary image", "responses": { "200": { "description": "PNG bytes" }, "404": { "description": "no image generated yet" } } }
    },
    "/status": { "get": { "summary": "Dataset status summary", "responses": { "200": { "description": "total count and newest refresh timestamp" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } }
  }
}`
