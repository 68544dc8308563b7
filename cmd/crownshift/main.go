// Command crownshift runs the Crownshift logistics API.
//
//	@title						Crownshift Logistics API
//	@version					1.0
//	@description				Multi-tenant shipments, inventory, fleet, payments and invoices.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
