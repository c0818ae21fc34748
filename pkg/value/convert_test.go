package value

import (
	"errors"
	"testing"
	"time"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		from    Type
		to      Type
		want    any
		wantErr bool
	}{
		{name: "same type", value: "x", from: TypeString, to: TypeString, want: "x"},
		{name: "integer to float", value: int64(10), from: TypeInteger, to: TypeFloat, want: 10.0},
		{name: "integer to unsigned", value: int64(10), from: TypeInteger, to: TypeUnsigned, want: ULong(10)},
		{name: "negative integer to unsigned", value: int64(-1), from: TypeInteger, to: TypeUnsigned, wantErr: true},
		{name: "integer to time", value: int64(1367491215), from: TypeInteger, to: TypeTime, want: time.Unix(1367491215, 0).UTC()},
		{name: "unsigned to integer", value: ULong(7), from: TypeUnsigned, to: TypeInteger, want: int64(7)},
		{name: "large unsigned to integer", value: MaxULong, from: TypeUnsigned, to: TypeInteger, wantErr: true},
		{name: "float to integer", value: 12.0, from: TypeFloat, to: TypeInteger, want: int64(12)},
		{name: "fractional float to integer", value: 12.5, from: TypeFloat, to: TypeInteger, wantErr: true},
		{name: "time to integer", value: time.Unix(100, 0), from: TypeTime, to: TypeInteger, want: int64(100)},
		{name: "string to integer", value: "12", from: TypeString, to: TypeInteger, wantErr: true},
		{name: "invalid source", value: 12, from: TypeInteger, to: TypeFloat, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.value, tt.from, tt.to)
			if tt.wantErr {
				if !errors.Is(err, ErrTypeMismatch) {
					t.Errorf("Convert() error = %v, want ErrTypeMismatch", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Convert() failed: %v", err)
			}
			if wt, ok := tt.want.(time.Time); ok {
				if !wt.Equal(got.(time.Time)) {
					t.Errorf("Convert() = %v, want %v", got, tt.want)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Convert() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}
