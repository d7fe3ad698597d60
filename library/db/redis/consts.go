package redis

const (
	keyPrefix = "portfolio/"

	// KeyPrefixRevokedSession marks a signed-out session token id
	KeyPrefixRevokedSession = keyPrefix + "sessions/revoked/"
)
