package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestJSONCodec_RoundTripsStatsResponse(t *testing.T) {
	c := jsonCodec{}

	data, err := c.Marshal(&StatsResponse{ActiveTournaments: 3, ActiveSessions: 7})
	require.NoError(t, err)

	var out StatsResponse
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, 3, out.ActiveTournaments)
	assert.Equal(t, 7, out.ActiveSessions)
}

func TestJSONCodec_RegisteredUnderProtoName(t *testing.T) {
	assert.Equal(t, "proto", jsonCodec{}.Name())
	assert.NotNil(t, encoding.GetCodec("proto"))
}
