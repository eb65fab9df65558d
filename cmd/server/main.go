package main

import "grubgo/internal/app"

// @title                       GrubGo API
// @version                     1.0
// @description                 Food ordering backend: accounts with emailed one-time codes, menu, carts and orders.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	app.Run()
}
