package main

// General API documentation for swaggo. Regenerate with
// `swag init -g cmd/tensord/docs.go -o docs`.
//
// @title           tensord API
// @version         1.0
// @description     HTTP API for the tensor keyspace and DAG execution over registered models.
//
// @contact.name   tensord maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
