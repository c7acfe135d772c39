// Package discord talks to the Discord API on behalf of the website
package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/oauth2"
)

const maxResponseSize = 1 << 20

var (
	ErrTokenExchange = errors.New("failed to exchange code for token")
	ErrUserFetch     = errors.New("failed to fetch user data")
)

// Profile is what a completed login yields
type Profile struct {
	User   *discordgo.User
	Guilds []*discordgo.UserGuild
}

// Identity turns an OAuth2 authorization code into a Discord profile
type Identity interface {
	Login(ctx context.Context, code, redirectURI string) (*Profile, error)
}

// OAuth implements Identity against the Discord REST API
type OAuth struct {
	conf    oauth2.Config
	apiBase string
	hc      *http.Client
}

// NewOAuth creates an Identity for the application. A nil http client means
// http.DefaultClient.
func NewOAuth(clientID, clientSecret, apiBase string, hc *http.Client) *OAuth {
	apiBase = strings.TrimRight(apiBase, "/")

	return &OAuth{
		conf: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       []string{"identify", "guilds"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   apiBase + "/oauth2/authorize",
				TokenURL:  apiBase + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBase: apiBase,
		hc:      hc,
	}
}

func (o *OAuth) Login(ctx context.Context, code, redirectURI string) (*Profile, error) {
	if o.hc != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.hc)
	}

	conf := o.conf
	conf.RedirectURL = redirectURI

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenExchange, err)
	}

	client := conf.Client(ctx, tok)

	var user discordgo.User
	if err := o.get(client, "/users/@me", &user); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUserFetch, err)
	}

	// Guilds are optional, a failure here still logs the user in
	var guilds []*discordgo.UserGuild
	if err := o.get(client, "/users/@me/guilds", &guilds); err != nil {
		guilds = nil
	}

	return &Profile{
		User:   &user,
		Guilds: guilds,
	}, nil
}

func (o *OAuth) get(client *http.Client, path string, out any) error {
	resp, err := client.Get(o.apiBase + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response body, %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("discord responded with %d: %s", resp.StatusCode, body)
	}

	return json.Unmarshal(body, out)
}

// AdminGuilds keeps the guilds where the user has the Administrator permission
func AdminGuilds(guilds []*discordgo.UserGuild) []*discordgo.UserGuild {
	admin := make([]*discordgo.UserGuild, 0, len(guilds))
	for _, g := range guilds {
		if g != nil && g.Permissions&discordgo.PermissionAdministrator != 0 {
			admin = append(admin, g)
		}
	}

	return admin
}
