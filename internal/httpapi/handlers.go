package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"agency-platform/internal/auth"
	"agency-platform/internal/inquiry"
	"agency-platform/internal/rbac"
	"agency-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Inquiries *inquiry.Service
	Auth      *auth.Manager
	Users     *auth.UserStore
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}

	user, err := h.Users.Authenticate(req.Email, req.Password)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !rbac.ValidRole(user.Role) {
		logger.FromGin(c).Error("provisioned account has unknown role", "email", user.Email, "role", user.Role)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "account misconfigured"})
		return
	}

	pair, err := h.Auth.IssuePair(time.Now(), user.Email, user.Email, user.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}

	claims, err := h.Auth.Verify(req.RefreshToken, auth.TokenTypeRefresh, time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	// Role is re-read from the account, not the old token, so revoking or
	// demoting an account takes effect on the next refresh.
	user, ok := h.Users.Lookup(claims.Email)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account no longer exists"})
		return
	}

	pair, err := h.Auth.IssuePair(time.Now(), user.Email, user.Email, user.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Inquiries ---

// CreateInquiry handles the public contact-form submission.
func (h Handlers) CreateInquiry(c *gin.Context) {
	var req inquiry.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	inq, err := h.Inquiries.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPayload(inq, time.Now()))
}

func (h Handlers) ListInquiries(c *gin.Context) {
	req := inquiry.ListRequest{
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		AssignedTo: c.Query("assignedTo"),
		Search:     c.Query("search"),
		SortBy:     c.DefaultQuery("sortBy", "createdAt"),
		SortOrder:  c.DefaultQuery("sortOrder", "desc"),
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 50),
	}

	res, err := h.Inquiries.List(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"inquiries":  toPayloads(res.Inquiries, time.Now()),
		"pagination": res.Pagination,
		"filters": gin.H{
			"status":     c.Query("status"),
			"priority":   c.Query("priority"),
			"assignedTo": c.Query("assignedTo"),
			"search":     c.Query("search"),
			"sortBy":     req.SortBy,
			"sortOrder":  req.SortOrder,
		},
	})
}

func (h Handlers) GetInquiry(c *gin.Context) {
	inq, err := h.Inquiries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPayload(inq, time.Now()))
}

func (h Handlers) UpdateInquiry(c *gin.Context) {
	var req inquiry.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UpdatedBy == "" {
		// Attribute the note to the authenticated admin when the client
		// does not name one.
		if email, err := auth.Email(c.Request.Context()); err == nil {
			req.UpdatedBy = email
		}
	}

	inq, err := h.Inquiries.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPayload(inq, time.Now()))
}

func (h Handlers) RespondInquiry(c *gin.Context) {
	var req inquiry.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.RespondedBy == "" {
		if email, err := auth.Email(c.Request.Context()); err == nil {
			req.RespondedBy = email
		}
	}

	res, err := h.Inquiries.Respond(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if res.EmailError {
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"message":    "Response saved but email failed to send. Please contact the customer manually.",
			"emailError": true,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Response sent successfully",
		"inquiry": toPayload(res.Inquiry, time.Now()),
	})
}

func (h Handlers) DeleteInquiry(c *gin.Context) {
	if err := h.Inquiries.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) InquirySummary(c *gin.Context) {
	stats, err := h.Inquiries.Summary(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// writeError maps service errors onto the wire contract: validation failures
// and malformed ids are 400, missing records 404, everything else a logged 500.
func (h Handlers) writeError(c *gin.Context, err error) {
	var verr *inquiry.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": verr.Msg})
	case errors.Is(err, inquiry.ErrInvalidID):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid inquiry ID"})
	case errors.Is(err, inquiry.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Inquiry not found"})
	default:
		logger.FromGin(c).Error("inquiry operation failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
