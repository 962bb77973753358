package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShoulderValidate(t *testing.T) {
	tests := []struct {
		name     string
		shoulder Shoulder
		wantErr  error
	}{
		{
			name: "ark shoulder passes",
			shoulder: Shoulder{
				Prefix: "ark:/99999/fk4",
				Type:   ShoulderTypeARK,
				Name:   "test shoulder",
			},
			wantErr: nil,
		},
		{
			name: "doi shoulder passes",
			shoulder: Shoulder{
				Prefix:     "doi:10.5072/FK2",
				Type:       ShoulderTypeDOI,
				Datacenter: "CDL.CDL",
			},
			wantErr: nil,
		},
		{
			name:     "empty prefix rejected",
			shoulder: Shoulder{Type: ShoulderTypeARK},
			wantErr:  ErrEmptyPrefix,
		},
		{
			name:     "unrecognized type rejected",
			shoulder: Shoulder{Prefix: "ark:/99999/fk4", Type: "URN"},
			wantErr:  ErrInvalidShoulderType,
		},
		{
			name:     "lowercase type rejected",
			shoulder: Shoulder{Prefix: "ark:/99999/fk4", Type: "ark"},
			wantErr:  ErrInvalidShoulderType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.shoulder.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
