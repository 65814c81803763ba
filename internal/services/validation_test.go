package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid transfer", func(t *testing.T) {
		req := TransferRequest{Sender: 1, Receiver: 2, Amount: decimal.RequireFromString("0.01")}
		assert.NoError(t, vh.ValidateStruct(&req))
	})

	t.Run("missing fields", func(t *testing.T) {
		err := vh.ValidateStruct(&TransferRequest{})
		require.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		assert.Len(t, validationErrors, 3)
	})

	t.Run("decimal amounts use numeric tags", func(t *testing.T) {
		err := vh.ValidateStruct(&DepositRequest{ID: 1, Amount: decimal.RequireFromString("-0.5")})
		require.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		require.Len(t, validationErrors, 1)
		assert.Equal(t, "Amount", validationErrors[0].Field())
		assert.Equal(t, "gt", validationErrors[0].Tag())
	})
}

func TestValidationHelper_Cents(t *testing.T) {
	vh := NewValidationHelper()
	overPrecise := decimal.RequireFromString("10.005")
	trailingZeros := decimal.RequireFromString("1.500")

	tests := []struct {
		name    string
		req     any
		invalid string
	}{
		{"deposit sub-cent", &DepositRequest{ID: 1, Amount: decimal.RequireFromString("0.004")}, "Amount"},
		{"withdraw sub-cent", &WithdrawRequest{ID: 1, Amount: decimal.RequireFromString("3.141")}, "Amount"},
		{"transfer sub-cent", &TransferRequest{Sender: 1, Receiver: 2, Amount: decimal.RequireFromString("0.001")}, "Amount"},
		{"opening balance sub-cent", &CreateAccountRequest{Name: "A", Balance: overPrecise}, "Balance"},
		{"patch balance sub-cent", &models.AccountPatch{Balance: &overPrecise}, "Balance"},
		{"trailing zeros are cents", &DepositRequest{ID: 1, Amount: trailingZeros}, ""},
		{"whole cents", &TransferRequest{Sender: 1, Receiver: 2, Amount: decimal.RequireFromString("12.34")}, ""},
		{"nil patch balance", &models.AccountPatch{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := vh.Validate(tt.req)
			if tt.invalid == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, "Field Validation Failed on 'cents' tag", vErr.Fields[tt.invalid])
		})
	}
}

func TestValidationHelper_Validate(t *testing.T) {
	vh := NewValidationHelper()

	err := vh.Validate(&CreateAccountRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "Name")
	assert.Equal(t, "validation failed: Name", vErr.Error())

	assert.NoError(t, vh.Validate(&CreateAccountRequest{Name: "Ok"}))
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("error response without validation errors", func(t *testing.T) {
		w := httptest.NewRecorder()

		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Account not found", response.Error)
		assert.Nil(t, response.Details)
	})

	t.Run("raw validator errors", func(t *testing.T) {
		vh := NewValidationHelper()
		validationErr := vh.ValidateStruct(&DepositRequest{})

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, validationErr)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Contains(t, response.Details, "ID")
		assert.Contains(t, response.Details, "Amount")
	})

	t.Run("ledger validation errors", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := &ValidationError{Fields: map[string]string{"Rate": "Field Validation Failed on 'gte' tag"}}
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Field Validation Failed on 'gte' tag", response.Details["Rate"])
	})

	t.Run("non validation errors carry no details", func(t *testing.T) {
		w := httptest.NewRecorder()
		SendErrorResponse(w, "boom", http.StatusInternalServerError, errors.New("boom"))

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Nil(t, response.Details)
	})
}
