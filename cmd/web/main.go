// @title           MetalHub API
// @version         1.0
// @description     B2B metals marketplace: memberships, listings, offers, buyer-seller chat and admin moderation.
// @contact.name    MetalHub support
// @contact.email   support@metalhub.example
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:4000
// @BasePath        /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.

package main

import (
	_ "metalhub_backend/docs"
	"metalhub_backend/internal/app"
)

func main() {
	app.Run()
}
