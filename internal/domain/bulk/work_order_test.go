package bulk

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkOrder(t *testing.T) {
	userID := uuid.New()

	wo, err := NewWorkOrder(userID, []string{"42", "42"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"42", "42"}, wo.Keys)
	assert.NotNil(t, wo.Opts)

	_, err = NewWorkOrder(uuid.Nil, []string{"1"}, nil)
	assert.Error(t, err)

	_, err = NewWorkOrder(userID, nil, nil)
	assert.Error(t, err)
}

func TestWorkOrder_RoundTrip(t *testing.T) {
	userID := uuid.MustParse("8a6e0804-2bd0-4672-b79d-d97027f9071a")
	wo, err := NewWorkOrder(userID, []string{"3", "1", "2"}, Options{"subject": "hi", "body": "hello", "module_type": "Order"})
	require.NoError(t, err)

	data, err := wo.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"user_id":"8a6e0804-2bd0-4672-b79d-d97027f9071a","keys":["3","1","2"],"opts":{"body":"hello","module_type":"Order","subject":"hi"}}`, string(data))

	again, err := wo.Marshal()
	require.NoError(t, err)
	assert.Equal(t, ContentHash(data), ContentHash(again))
	assert.Len(t, ContentHash(data), 64)

	decoded, err := UnmarshalWorkOrder(data)
	require.NoError(t, err)
	assert.Equal(t, wo.UserID, decoded.UserID)
	assert.Equal(t, wo.Keys, decoded.Keys)
	assert.Equal(t, "Order", decoded.Opts.String("module_type"))
}

func TestWorkOrder_RoundTripKeepsNumericOpts(t *testing.T) {
	var opts Options
	require.NoError(t, json.Unmarshal([]byte(`{"customer_order_number":1000000,"ref":9007199254740993,"rate":0.25,"nested":{"n":12}}`), &opts))
	assert.Equal(t, "1000000", opts.String("customer_order_number"))
	assert.Equal(t, "9007199254740993", opts.String("ref"))

	wo, err := NewWorkOrder(uuid.New(), []string{"1"}, opts)
	require.NoError(t, err)
	data, err := wo.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"customer_order_number":1000000`)
	assert.Contains(t, string(data), `"ref":9007199254740993`)

	decoded, err := UnmarshalWorkOrder(data)
	require.NoError(t, err)
	assert.Equal(t, "1000000", decoded.Opts.String("customer_order_number"))
	assert.Equal(t, "9007199254740993", decoded.Opts.String("ref"))
	assert.Equal(t, "0.25", decoded.Opts.String("rate"))
	assert.Equal(t, json.Number("1000000"), decoded.Opts["customer_order_number"])

	again, err := decoded.Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestUnmarshalWorkOrder_Invalid(t *testing.T) {
	_, err := UnmarshalWorkOrder([]byte(`not json`))
	assert.Error(t, err)

	_, err = UnmarshalWorkOrder([]byte(`{"user_id":"8a6e0804-2bd0-4672-b79d-d97027f9071a","keys":[]}`))
	assert.Error(t, err)
}

func TestSnapshotKey(t *testing.T) {
	at := time.Unix(1700000000, 5)
	assert.Equal(t, "bulk/abc-1700000000000000005.json", SnapshotKey("/bulk/", "abc", at))
	assert.Equal(t, "abc-1700000000000000005.json", SnapshotKey("", "abc", at))
	assert.NotEqual(t, SnapshotKey("bulk", "abc", at), SnapshotKey("bulk", "abc", at.Add(time.Nanosecond)))
}

func TestOptions(t *testing.T) {
	opts := Options{"subject": "  hi ", "count": 3, "big": 1e6, "none": nil}
	assert.Equal(t, "hi", opts.String("subject"))
	assert.Equal(t, "3", opts.String("count"))
	assert.Equal(t, "1000000", opts.String("big"))
	assert.Equal(t, "", opts.String("none"))
	assert.Equal(t, "", opts.String("missing"))
	assert.True(t, opts.Has("none"))

	clone := opts.Clone()
	clone["subject"] = "changed"
	assert.Equal(t, "hi", opts.String("subject"))
}
