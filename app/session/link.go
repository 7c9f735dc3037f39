package session

import (
	"errors"
	"net/url"
)

const _linkParam = "sessionId"

// SessionIDFromLink reads the session id out of a shared join link's query
// parameter.
func SessionIDFromLink(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	sessionId := u.Query().Get(_linkParam)
	if sessionId == "" {
		return "", errors.New("link carries no session id")
	}
	return sessionId, nil
}

// JoinLink rewrites base's query parameter to address sessionId.
func JoinLink(base string, sessionId string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	query := u.Query()
	query.Set(_linkParam, sessionId)
	u.RawQuery = query.Encode()
	return u.String(), nil
}
