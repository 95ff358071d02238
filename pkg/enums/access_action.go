package enums

import "fmt"

// AccessAction classifies how an image was touched.
type AccessAction string

const (
	AccessActionView     AccessAction = "view"
	AccessActionDownload AccessAction = "download"
)

var validAccessActions = []AccessAction{
	AccessActionView,
	AccessActionDownload,
}

func (a AccessAction) String() string {
	return string(a)
}

func (a AccessAction) IsValid() bool {
	for _, candidate := range validAccessActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAccessAction converts raw input into an AccessAction.
func ParseAccessAction(value string) (AccessAction, error) {
	for _, candidate := range validAccessActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid access action %q", value)
}
