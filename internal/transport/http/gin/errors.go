package httpgin

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kirinyoku/stayledger/internal/service/admin"
	"github.com/kirinyoku/stayledger/internal/service/booking"
	"github.com/kirinyoku/stayledger/internal/service/query"
)

var kindStatus = map[booking.Kind]int{
	booking.KindValidation:    http.StatusBadRequest,
	booking.KindConflict:      http.StatusConflict,
	booking.KindAuthorization: http.StatusForbidden,
	booking.KindState:         http.StatusConflict,
	booking.KindNotFound:      http.StatusNotFound,
	booking.KindFinancial:     http.StatusUnprocessableEntity,
	booking.KindNotSupported:  http.StatusNotImplemented,
	booking.KindRateLimited:   http.StatusTooManyRequests,
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// admin service
	case errors.Is(err, admin.ErrListingConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "listing already exists"})
		return
	case errors.Is(err, admin.ErrBadHours),
		errors.Is(err, admin.ErrCheckoutAfterCheckin),
		errors.Is(err, admin.ErrInvalidListing),
		errors.Is(err, admin.ErrInvalidDeposit):
		badRequest(c, rootMessage(err))
		return
	case errors.Is(err, admin.ErrBalanceOverflow):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "balance overflow"})
		return
	// query service
	case errors.Is(err, query.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
		return
	case errors.Is(err, query.ErrListingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "listing not found"})
		return
	}

	// booking service
	kind := booking.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	var limited *booking.RateLimitedError
	if errors.As(err, &limited) {
		secs := int(math.Ceil(limited.RetryAfter.Seconds()))
		c.Header("Retry-After", strconv.Itoa(max(secs, 1)))
	}

	// The full chain goes to the request log only.
	_ = c.Error(err)
	c.JSON(status, ErrorResponse{Error: booking.Message(err), Kind: kind.String()})
}

// rootMessage strips the operation prefixes added while the error travelled
// up a single-cause chain.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}
