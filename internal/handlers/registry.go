package handlers

// AppHandlers holds every HTTP handler of the API.
type AppHandlers struct {
	AuthHandler       *AuthHandler
	UserHandler       *UserHandler
	MembershipHandler *MembershipHandler
	ListingHandler    *ListingHandler
	OfferHandler      *OfferHandler
	ChatHandler       *ChatHandler
	PaymentHandler    *PaymentHandler
	AdminHandler      *AdminHandler
	HealthHandler     *HealthHandler
}
