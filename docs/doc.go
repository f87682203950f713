// Package docs provides generated OpenAPI documentation.
//
// Easel API
//
//	@title			Easel API
//	@version		1.0
//	@description	Session-based generation and review API for multi-page illustrated documents.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/easel
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8383
//	@BasePath	/
//
//	@schemes	http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package docs

//go:generate swag init -g ../cmd/easel/serve.go -o ./swagger --parseDependency --parseInternal
