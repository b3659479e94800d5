package services

// ServiceContainer holds every application service.
type ServiceContainer struct {
	AuthService       AuthService
	UserService       UserService
	MembershipService MembershipService
	ListingService    ListingService
	OfferService      OfferService
	ChatService       ChatService
	PaymentService    PaymentService
	AdminService      AdminService
	Notifier          Notifier
}
