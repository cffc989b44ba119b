package httpgin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kirinyoku/stayledger/internal/auth"
	"github.com/kirinyoku/stayledger/internal/domain"
	redisx "github.com/kirinyoku/stayledger/internal/redis"
	redisrepo "github.com/kirinyoku/stayledger/internal/repository/redis"
	"github.com/kirinyoku/stayledger/internal/service"
	"github.com/kirinyoku/stayledger/internal/service/admin"
	"github.com/kirinyoku/stayledger/internal/service/booking"
)

const idempotencyLockTTL = 60 * time.Second

func NewRouter(
	svcs *service.Services,
	authn *auth.Authenticator,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggingMiddleware(logger), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/", Authenticate(authn))

	api.GET("/listings/:id", handleGetListing(svcs))
	api.GET("/listings/:id/bookings", handleListingBookings(svcs))
	api.GET("/listings/:id/availability", handleAvailability(svcs))
	api.POST("/listings/:id/bookings", handleCreateBooking(svcs, idem))

	api.GET("/bookings", handleBookingIDs(svcs))
	api.GET("/bookings/:id", handleGetBooking(svcs))
	api.PUT("/bookings/:id", handleUpdateBooking(svcs))
	api.POST("/bookings/:id/confirm", handleCommand(svcs.Booking.Confirm, domain.BookingConfirmed))
	api.POST("/bookings/:id/reject", handleCommand(svcs.Booking.Reject, domain.BookingRejected))
	api.POST("/bookings/:id/checkin", handleCommand(svcs.Booking.Checkin, domain.BookingOwnerCanWithdraw))
	api.POST("/bookings/:id/withdraw", handleCommand(svcs.Booking.Withdraw, domain.BookingCompleted))
	api.POST("/bookings/:id/cancel", handleCommand(svcs.Booking.Cancel, domain.BookingRejected))

	api.GET("/accounts/:id/withdrawals", handlePendingWithdrawals(svcs))
	api.GET("/accounts/:id/balance", handleBalance(svcs))

	// Admin-API
	adm := api.Group("/admin", RequireRole(auth.RoleAdmin))
	{
		adm.POST("/listings", handleCreateListing(svcs))
		adm.POST("/accounts/:id/deposit", handleDeposit(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Get listing
// @Param    id  path  string  true  "Listing ID (0x-hex)"
// @Success  200  {object}  domain.Listing
// @Failure  404  {object}  ErrorResponse
// @Router   /listings/{id} [get]
func handleGetListing(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseHashParam(c, "id")
		if !ok {
			return
		}
		l, err := svcs.Query.GetListing(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, l, "private, max-age=60")
	}
}

// @Summary  List active bookings of a listing
// @Param    id  path  string  true  "Listing ID (0x-hex)"
// @Success  200  {array}   domain.Booking
// @Failure  404  {object}  ErrorResponse
// @Router   /listings/{id}/bookings [get]
func handleListingBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseHashParam(c, "id")
		if !ok {
			return
		}
		bookings, err := svcs.Query.ListingBookings(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, bookings, "private, max-age=15")
	}
}

// @Summary  Check availability of a stay
// @Param    id     path   string  true  "Listing ID (0x-hex)"
// @Param    start  query  int     true  "Start (unix seconds or milliseconds)"
// @Param    end    query  int     true  "End (unix seconds or milliseconds)"
// @Success  200  {object}  AvailabilityResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /listings/{id}/availability [get]
func handleAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseHashParam(c, "id")
		if !ok {
			return
		}
		start, ok := parseMomentQuery(c, "start")
		if !ok {
			return
		}
		end, ok := parseMomentQuery(c, "end")
		if !ok {
			return
		}
		available, nStart, nEnd, err := svcs.Booking.Availability(c.Request.Context(), id, start, end)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, AvailabilityResponse{
			ListingID: id,
			Start:     nStart,
			End:       nEnd,
			Available: available,
		})
	}
}

// @Summary  Place a booking (idempotent)
// @Param    id   path  string  true  "Listing ID (0x-hex)"
// @Param    req  body  CreateBookingRequest  true  "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} CreateBookingResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "dates unavailable / duplicate / idem in progress"
// @Failure  422 {object} ErrorResponse "insufficient balance"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /listings/{id}/bookings [post]
func handleCreateBooking(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		listingID, ok := parseHashParam(c, "id")
		if !ok {
			return
		}
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		ctx := c.Request.Context()
		caller := callerFrom(c)

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisx.KeyIdemBooking(caller, listingID.String()+":"+idemKey)

			payload, state, err := idem.Claim(ctx, idemStorageKey, idempotencyLockTTL)
			if err != nil {
				respondErr(c, err)
				return
			}
			switch state {
			case redisrepo.ClaimReplay:
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			case redisrepo.ClaimInProgress:
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		id, err := svcs.Booking.Create(ctx, caller, booking.CreateParams{
			ListingID: listingID,
			Start:     domain.Moment(req.Start),
			End:       domain.Moment(req.End),
			Amount:    domain.Balance(req.Amount),
		})
		if err != nil {
			if idemStorageKey != "" {
				_ = idem.Release(context.WithoutCancel(ctx), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := CreateBookingResponse{BookingID: id}

		if idemStorageKey != "" {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(context.WithoutCancel(ctx), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  List all booking ids
// @Success  200  {object}  BookingIDsResponse
// @Router   /bookings [get]
func handleBookingIDs(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ids, err := svcs.Query.BookingIDs(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, BookingIDsResponse{BookingIDs: ids})
	}
}

// @Summary  Get booking
// @Param    id  path  string  true  "Booking ID (0x-hex)"
// @Success  200  {object}  domain.Booking
// @Failure  404  {object}  ErrorResponse
// @Router   /bookings/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseHashParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Query.GetBooking(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, b, "no-cache")
	}
}

// @Summary  Update booking (not supported)
// @Param    id   path  string  true  "Booking ID (0x-hex)"
// @Param    req  body  UpdateBookingRequest  true  "payload"
// @Failure  501  {object}  ErrorResponse
// @Router   /bookings/{id} [put]
func handleUpdateBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseHashParam(c, "id")
		if !ok {
			return
		}
		var req UpdateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		_, err := svcs.Booking.Update(c.Request.Context(), callerFrom(c), id, booking.UpdateParams{
			Start:  domain.Moment(req.Start),
			End:    domain.Moment(req.End),
			Amount: domain.Balance(req.Amount),
		})
		respondErr(c, err)
	}
}

type command func(ctx context.Context, caller domain.AccountID, id domain.Hash) (domain.Hash, error)

// @Summary  Run a lifecycle command on a booking
// @Param    id  path  string  true  "Booking ID (0x-hex)"
// @Success  200  {object}  CommandResponse
// @Failure  403  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse
// @Failure  422  {object}  ErrorResponse
// @Failure  501  {object}  ErrorResponse
// @Router   /bookings/{id}/confirm [post]
// @Router   /bookings/{id}/reject [post]
// @Router   /bookings/{id}/checkin [post]
// @Router   /bookings/{id}/withdraw [post]
// @Router   /bookings/{id}/cancel [post]
func handleCommand(run command, next domain.BookingState) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseHashParam(c, "id")
		if !ok {
			return
		}
		bookingID, err := run(c.Request.Context(), callerFrom(c), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, CommandResponse{BookingID: bookingID, State: next})
	}
}

// @Summary  List pending withdrawals of an account
// @Param    id  path  string  true  "Account ID"
// @Success  200  {array}   domain.PendingWithdrawal
// @Failure  403  {object}  ErrorResponse
// @Router   /accounts/{id}/withdrawals [get]
func handlePendingWithdrawals(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := accountParam(c)
		if !ok {
			return
		}
		out, err := svcs.Query.PendingWithdrawals(c.Request.Context(), account)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Get account balance
// @Param    id  path  string  true  "Account ID"
// @Success  200  {object}  domain.AccountBalance
// @Failure  403  {object}  ErrorResponse
// @Router   /accounts/{id}/balance [get]
func handleBalance(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := accountParam(c)
		if !ok {
			return
		}
		bal, err := svcs.Query.Balance(c.Request.Context(), account)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, bal)
	}
}

// @Summary  Register listing
// @Param    req body  CreateListingRequest true "payload"
// @Success  201 {object} CreateListingResponse
// @Failure  409 {object} ErrorResponse
// @Router   /admin/listings [post]
func handleCreateListing(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateListingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		id, err := svcs.Admin.CreateListing(
			c.Request.Context(),
			domain.AccountID(req.Owner),
			admin.CreateListingParams{
				Name:          req.Name,
				Address:       req.Address,
				PricePerNight: domain.Balance(req.PricePerNight),
				CheckinHour:   req.CheckinHour,
				CheckoutHour:  req.CheckoutHour,
			},
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateListingResponse{ListingID: id})
	}
}

// @Summary  Fund account
// @Param    id  path  string  true  "Account ID"
// @Param    req body  DepositRequest true "payload"
// @Success  200 {object} domain.AccountBalance
// @Router   /admin/accounts/{id}/deposit [post]
func handleDeposit(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DepositRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		bal, err := svcs.Admin.Deposit(
			c.Request.Context(),
			domain.AccountID(c.Param("id")),
			domain.Balance(req.Amount),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, bal)
	}
}

// --- Helpers ---

func parseHashParam(c *gin.Context, name string) (domain.Hash, bool) {
	h, err := domain.ParseHash(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return domain.Hash{}, false
	}
	return h, true
}

func parseMomentQuery(c *gin.Context, name string) (domain.Moment, bool) {
	v, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return domain.Moment(v), true
}

// accountParam returns the account in the path. Only the account itself or
// an admin may read it.
func accountParam(c *gin.Context) (domain.AccountID, bool) {
	account := domain.AccountID(c.Param("id"))
	if account != callerFrom(c) && c.GetString(ctxRole) != auth.RoleAdmin {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
		return "", false
	}
	return account, true
}
