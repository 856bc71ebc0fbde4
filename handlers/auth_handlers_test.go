package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"eventstream/api/middleware"
	"eventstream/api/utils"
)

func newAuthRouter(us *fakeUserStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandlers(us, utils.NewJWTManager("handler-secret"), false)
	h.bcryptCost = bcrypt.MinCost

	r := gin.New()
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	return r
}

func tokenCookie(rec interface{ Result() *http.Response }) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.TokenCookieName {
			return c
		}
	}
	return nil
}

func TestSignupAndLogin(t *testing.T) {
	us := newFakeUserStore()
	r := newAuthRouter(us)

	rec := post(r, "/signup", `{"email":"ada@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, us.users, "ada@example.com")
	assert.NotEqual(t, []byte("correct-horse"), us.users["ada@example.com"].HashedPassword)

	rec = post(r, "/signup", `{"email":"ada@example.com","password":"correct-horse"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = post(r, "/login", `{"email":"ada@example.com","password":"wrong-horse"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(r, "/login", `{"email":"nobody@example.com","password":"correct-horse"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(r, "/login", `{"email":"ada@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := tokenCookie(rec)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	claims, err := utils.NewJWTManager("handler-secret").Validate(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestSignup_Validation(t *testing.T) {
	r := newAuthRouter(newFakeUserStore())

	assert.Equal(t, http.StatusBadRequest, post(r, "/signup", `{"email":"not-an-email","password":"long-enough"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, "/signup", `{"email":"a@example.com","password":"short"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, "/signup", `nope`).Code)
}

func TestSignup_LookupFailure(t *testing.T) {
	us := newFakeUserStore()
	us.lookupErr = errBoom

	rec := post(newAuthRouter(us), "/signup", `{"email":"ada@example.com","password":"correct-horse"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogout_ClearsCookie(t *testing.T) {
	rec := post(newAuthRouter(newFakeUserStore()), "/logout", ``)

	require.Equal(t, http.StatusOK, rec.Code)
	cookie := tokenCookie(rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandlers(newFakeUserStore(), utils.NewJWTManager("handler-secret"), false)

	tests := []struct {
		name     string
		identity gin.HandlerFunc
		want     string
	}{
		{
			name: "token user",
			identity: func(c *gin.Context) {
				c.Set(middleware.ContextUserID, 7)
				c.Set(middleware.ContextUserEmail, "grace@example.com")
			},
			want: `{"user_id":7,"user_email":"grace@example.com","api_key":false,"ip_address":"192.0.2.1"}`,
		},
		{
			name:     "api key caller",
			identity: func(*gin.Context) {},
			want:     `{"user_id":0,"user_email":"","api_key":true,"ip_address":"192.0.2.1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/profile", tt.identity, h.Profile)

			rec := get(r, "/profile")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestSignup_EmailTooLong(t *testing.T) {
	r := newAuthRouter(newFakeUserStore())
	email := strings.Repeat("a", 250) + "@example.com"

	rec := post(r, "/signup", `{"email":"`+email+`","password":"correct-horse"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
