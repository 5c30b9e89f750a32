package twilio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/user/dealwatch/internal/entity"
	"github.com/user/dealwatch/internal/repository"
)

type fakeCreator struct {
	params []*twilioApi.CreateMessageParams
	resp   *twilioApi.ApiV2010Message
	err    error
}

func (f *fakeCreator) CreateMessage(p *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = append(f.params, p)
	return f.resp, f.err
}

func testConfig() Config {
	return Config{From: "+15550000001", To: "+15550000002", Headline: "New RTX 3090 Deal!", RatePerSec: 0}
}

func TestNotify_SendsFormattedMessage(t *testing.T) {
	sid := "SM123"
	api := &fakeCreator{resp: &twilioApi.ApiV2010Message{Sid: &sid}}
	n := newNotifier(api, testConfig(), zap.NewNop())

	err := n.Notify(context.Background(), &entity.Listing{
		ID: "1", Title: "RTX 3090", Price: 799.5, Link: "https://www.ebay.com/itm/1",
	})
	require.NoError(t, err)
	require.Len(t, api.params, 1)

	p := api.params[0]
	assert.Equal(t, "+15550000002", *p.To)
	assert.Equal(t, "+15550000001", *p.From)
	assert.Equal(t, "New RTX 3090 Deal!\nRTX 3090\nPrice: $799.50\nLink: https://www.ebay.com/itm/1", *p.Body)
}

func TestNotify_ProviderError(t *testing.T) {
	api := &fakeCreator{err: errors.New("invalid 'To' phone number")}
	n := newNotifier(api, testConfig(), zap.NewNop())

	err := n.Notify(context.Background(), &entity.Listing{ID: "9"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid 'To' phone number")
	assert.Contains(t, err.Error(), "listing 9")
}

func TestNotify_MessageErrorField(t *testing.T) {
	reason := "queue overflow"
	api := &fakeCreator{resp: &twilioApi.ApiV2010Message{ErrorMessage: &reason}}
	n := newNotifier(api, testConfig(), zap.NewNop())

	err := n.Notify(context.Background(), &entity.Listing{ID: "9"})
	assert.ErrorContains(t, err, "queue overflow")
}

func TestNotify_NilListing(t *testing.T) {
	n := newNotifier(&fakeCreator{}, testConfig(), zap.NewNop())
	assert.ErrorIs(t, n.Notify(context.Background(), nil), repository.ErrInvalidInput)
}

func TestNotify_PacingRespectsContext(t *testing.T) {
	cfg := testConfig()
	cfg.RatePerSec = 0.001
	api := &fakeCreator{}
	n := newNotifier(api, cfg, zap.NewNop())

	require.NoError(t, n.Notify(context.Background(), &entity.Listing{ID: "1"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := n.Notify(ctx, &entity.Listing{ID: "2"})
	require.Error(t, err)
	assert.Len(t, api.params, 1, "second message must not reach the provider")
}
