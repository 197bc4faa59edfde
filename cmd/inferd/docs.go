package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           inferd API
// @version         1.0
// @description     OpenAI-compatible HTTP API for local GGUF chat and embedding models.
//
// @BasePath  /
//
// @schemes http
