package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kishan2613/Sarthi/apperror"
)

func TestTranslateError(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}

	cases := []struct {
		name string
		err  error
		want apperror.Code
	}{
		{"no documents", mongo.ErrNoDocuments, apperror.CodeNotFound},
		{"wrapped no documents", fmt.Errorf("find: %w", mongo.ErrNoDocuments), apperror.CodeNotFound},
		{"duplicate key", dup, apperror.CodeConflict},
		{"deadline", context.DeadlineExceeded, apperror.CodeTimeout},
		{"disconnected", mongo.ErrClientDisconnected, apperror.CodeUnavailable},
		{"write conflict", mongo.CommandError{Code: 112, Name: "WriteConflict", Labels: []string{TransientTransactionLabel}}, apperror.CodeUnavailable},
		{"other", errors.New("weird"), apperror.CodeInternal},
		{"already classified", apperror.New(apperror.CodeSlotFull, "full"), apperror.CodeSlotFull},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, apperror.CodeOf(TranslateError(tc.err, "slot")))
		})
	}
	assert.NoError(t, TranslateError(nil, "slot"))
}

func TestTranslateErrorMessages(t *testing.T) {
	assert.Equal(t, "booking not found", TranslateError(mongo.ErrNoDocuments, "booking").Error())
}
