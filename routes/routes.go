package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"readify/controllers"
	"readify/middleware"
	"readify/models"
	"readify/services"
)

// Controllers bundles every HTTP handler set.
type Controllers struct {
	Auth      *controllers.AuthController
	Profile   *controllers.ProfileController
	Book      *controllers.BookController
	Category  *controllers.CategoryController
	Cart      *controllers.CartController
	Wishlist  *controllers.WishlistController
	Promotion *controllers.PromotionController
	Account   *controllers.AccountController
	Staff     *controllers.StaffController
	Media     *controllers.MediaController
	Stock     *controllers.StockController
	Supplier  *controllers.SupplierController
}

// Register mounts the public storefront, customer, warehouse and admin routes.
func Register(r *gin.Engine, h *Controllers, auth services.AuthService) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "readify"})
	})

	requireAuth := middleware.RequireAuth(auth)
	warehouse := middleware.RequireRoles(models.RoleStaff, models.RoleAdmin)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	authRoutes := r.Group("/auth")
	authRoutes.POST("/register", h.Auth.Register)
	authRoutes.POST("/login", h.Auth.Login)
	authRoutes.POST("/refresh", h.Auth.Refresh)
	authRoutes.POST("/logout", requireAuth, h.Auth.Logout)

	me := r.Group("/accounts/me", requireAuth)
	me.GET("", h.Profile.GetProfile)
	me.PUT("", h.Profile.UpdateProfile)
	me.PUT("/password", h.Profile.ChangePassword)

	r.GET("/book", h.Book.ListBooks)
	r.GET("/book/:slug", h.Book.GetBook)
	r.GET("/category", h.Category.ListCategories)
	r.GET("/media/:id", h.Media.GetMedia)

	cart := r.Group("/cart", requireAuth)
	cart.GET("", h.Cart.GetCart)
	cart.DELETE("", h.Cart.ClearCart)
	cart.POST("/items", h.Cart.AddItem)
	cart.PUT("/items/:bookId", h.Cart.UpdateItem)
	cart.DELETE("/items/:bookId", h.Cart.RemoveItem)
	cart.POST("/checkout", h.Cart.Checkout)

	wishlist := r.Group("/wishlist", requireAuth)
	wishlist.GET("", h.Wishlist.ListWishlist)
	wishlist.POST("/:bookId", h.Wishlist.AddToWishlist)
	wishlist.DELETE("/:bookId", h.Wishlist.RemoveFromWishlist)
	wishlist.POST("/:bookId/move-to-cart", h.Wishlist.MoveToCart)

	r.POST("/promotion/validate", requireAuth, h.Promotion.ValidatePromotion)

	media := r.Group("/media", requireAuth, warehouse)
	media.POST("/presign", h.Media.Presign)
	media.POST("", h.Media.RegisterMedia)
	media.DELETE("/:id", h.Media.DeleteMedia)

	stock := r.Group("/stock", requireAuth, warehouse)
	stock.GET("", h.Stock.ListStock)
	stock.GET("/low", h.Stock.LowStock)
	stock.GET("/receipts", h.Stock.ListReceipts)
	stock.POST("/receipts", h.Stock.CreateReceipt)
	stock.GET("/:bookId", h.Stock.GetStock)
	stock.PUT("/:bookId", h.Stock.AdjustStock)
	stock.GET("/:bookId/movements", h.Stock.ListMovements)

	supplier := r.Group("/supplier", requireAuth, warehouse)
	supplier.GET("", h.Supplier.ListSuppliers)
	supplier.POST("", h.Supplier.CreateSupplier)
	supplier.GET("/:id", h.Supplier.GetSupplier)
	supplier.PUT("/:id", h.Supplier.UpdateSupplier)
	supplier.DELETE("/:id", h.Supplier.DeleteSupplier)

	admin := r.Group("/admin", requireAuth, adminOnly)

	admin.GET("/book", h.Book.AdminListBooks)
	admin.POST("/book", h.Book.CreateBook)
	admin.GET("/book/:id", h.Book.AdminGetBook)
	admin.PUT("/book/:id", h.Book.UpdateBook)
	admin.DELETE("/book/:id", h.Book.DeleteBook)

	admin.GET("/category", h.Category.ListCategories)
	admin.POST("/category", h.Category.CreateCategory)
	admin.PUT("/category/:id", h.Category.UpdateCategory)
	admin.DELETE("/category/:id", h.Category.DeleteCategory)

	admin.GET("/promotion", h.Promotion.ListPromotions)
	admin.POST("/promotion", h.Promotion.CreatePromotion)
	admin.GET("/promotion/:id", h.Promotion.GetPromotion)
	admin.PUT("/promotion/:id", h.Promotion.UpdatePromotion)
	admin.DELETE("/promotion/:id", h.Promotion.DeletePromotion)

	admin.GET("/account", h.Account.ListAccounts)
	admin.POST("/account", h.Account.CreateAccount)
	admin.GET("/account/:id", h.Account.GetAccount)
	admin.PUT("/account/:id", h.Account.UpdateAccount)
	admin.PATCH("/account/:id/status", h.Account.UpdateAccountStatus)
	admin.DELETE("/account/:id", h.Account.DeleteAccount)

	admin.GET("/staff", h.Staff.ListStaff)
	admin.POST("/staff", h.Staff.CreateStaff)
	admin.GET("/staff/:id", h.Staff.GetStaff)
	admin.PUT("/staff/:id", h.Staff.UpdateStaff)
	admin.DELETE("/staff/:id", h.Staff.DeleteStaff)
}
