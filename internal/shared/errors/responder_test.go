package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errShort = errors.New("short")

func respond(t *testing.T, r interface{ RespondError(*gin.Context, error) }, err error) (*httptest.ResponseRecorder, ProblemDetail) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/inventory/reservations", nil)
	r.RespondError(c, err)

	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return rec, problem
}

func TestChainedResponder_UsesFirstMatchingMapper(t *testing.T) {
	responder := NewChainedResponder("https://checkout.example",
		func(err error) (ProblemDetail, bool) {
			if errors.Is(err, errShort) {
				return NewInsufficientStockProblem(7, 5, 3), true
			}
			return ProblemDetail{}, false
		},
	)

	rec, problem := respond(t, responder, errShort)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	assert.Equal(t, "https://checkout.example/problems/insufficient-stock", problem.Type)
	assert.Equal(t, "/v1/inventory/reservations", problem.Instance)
	assert.EqualValues(t, 3, problem.Extensions["available"])
}

func TestResponder_HidesUnknownErrors(t *testing.T) {
	rec, problem := respond(t, NewResponder(""), errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, problem.Detail, "pq:")
}

func TestResponder_CancelledRequests(t *testing.T) {
	rec, problem := respond(t, NewResponder(""), context.DeadlineExceeded)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, TypeUnavailable, problem.Type)
}

func TestResponder_PassesProblemsThrough(t *testing.T) {
	rec, problem := respond(t, NewResponder(""), NewInvalidStateProblem("reservation", "r-1", "confirmed", "confirm"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "confirmed", problem.Extensions["state"])
	assert.Equal(t, http.StatusConflict, HTTPStatusFromError(NewInvalidStateProblem("reservation", "r-1", "confirmed", "confirm")))
}
