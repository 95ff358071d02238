package gcs

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const storageHost = "https://storage.googleapis.com"

// SignedURL returns a V2 signed URL authorizing a single PUT upload of the
// given object. The caller must send the exact Content-Type used for signing.
func (c *Client) SignedURL(bucket, object, contentType string, expires time.Duration) (string, error) {
	if c == nil || c.serviceAccount == nil {
		return "", errors.New("gcs signing identity not configured")
	}
	if bucket == "" {
		bucket = c.defaultBucket
	}
	if bucket == "" {
		return "", errors.New("bucket is required")
	}
	if object == "" {
		return "", errors.New("object is required")
	}
	if contentType == "" {
		return "", errors.New("content type is required")
	}
	if expires <= 0 {
		return "", errors.New("expiry must be positive")
	}

	expiration := time.Now().Add(expires).Unix()
	expireParam := strconv.FormatInt(expiration, 10)

	toSign := "PUT\n\n" + contentType + "\n" + expireParam + "\n/" + bucket + "/" + object
	signature, err := c.sign(toSign)
	if err != nil {
		return "", err
	}

	values := url.Values{}
	values.Set("GoogleAccessId", url.QueryEscape(c.serviceAccount.clientEmail))
	values.Set("Expires", expireParam)
	values.Set("Signature", url.QueryEscape(signature))

	return fmt.Sprintf("%s/%s/%s?%s", storageHost, bucket, object, values.Encode()), nil
}

// SignedReadURL returns a V2 signed URL authorizing a single GET download of
// the given object.
func (c *Client) SignedReadURL(bucket, object string, expires time.Duration) (string, error) {
	if c == nil || c.serviceAccount == nil {
		return "", errors.New("gcs signing identity not configured")
	}
	if bucket == "" {
		bucket = c.defaultBucket
	}
	if bucket == "" {
		return "", errors.New("bucket is required")
	}
	if object == "" {
		return "", errors.New("object is required")
	}
	if expires <= 0 {
		return "", errors.New("expiry must be positive")
	}

	expiration := time.Now().Add(expires).Unix()
	expireParam := strconv.FormatInt(expiration, 10)

	toSign := "GET\n\n\n" + expireParam + "\n/" + bucket + "/" + object
	signature, err := c.sign(toSign)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s/%s?GoogleAccessId=%s&Expires=%s&Signature=%s",
		storageHost, bucket, object, c.serviceAccount.clientEmail, expireParam, signature), nil
}

func (c *Client) sign(payload string) (string, error) {
	hash := sha256.Sum256([]byte(payload))
	signature, err := rsa.SignPKCS1v15(rand.Reader, c.serviceAccount.privateKey, crypto.SHA256, hash[:])
	if err != nil {
		return "", fmt.Errorf("signing url: %w", err)
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}
