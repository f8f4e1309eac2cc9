package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/livekit-examples/meet-gateway/pkg/auth"
	"github.com/livekit-examples/meet-gateway/pkg/utils"
)

func generateKeys(_ *cli.Context) error {
	apiKey := utils.NewGuid(utils.APIKeyPrefix)
	secret := utils.RandomSecret()
	fmt.Println("API Key: ", apiKey)
	fmt.Println("API Secret: ", secret)
	return nil
}

func createToken(c *cli.Context) error {
	conf, err := getConfig(c)
	if err != nil {
		return err
	}
	if conf.LiveKit.APIKey == "" || conf.LiveKit.APISecret == "" {
		return auth.ErrKeysMissing
	}

	room := c.String("room")
	identity := c.String("identity")

	grant := &auth.VideoGrant{
		RoomJoin:     true,
		Room:         room,
		CanPublish:   true,
		CanSubscribe: true,
	}
	at := auth.NewAccessToken(conf.LiveKit.APIKey, conf.LiveKit.APISecret).
		AddGrant(grant).
		SetIdentity(identity).
		SetValidFor(30 * 24 * time.Hour)

	if c.Bool("recorder") {
		at.SetMetadata(`{"canRecord":true}`)
	}

	token, err := at.ToJWT()
	if err != nil {
		return err
	}

	fmt.Println("Token:", token)
	return nil
}
