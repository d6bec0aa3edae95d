// Command confsync serves a typed configuration registry and edits it
// from a remote replica.
//
//	@title						confsync - Typed Configuration Sync
//	@version					1.0
//	@description				Authority endpoints for a typed configuration registry: schema introspection and a binary sync protocol for replicas.
//	@BasePath					/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Actor token: Bearer {token}
package main

func main() {
	Execute()
}
