package model

// PermissionStatus is the answer to a location permission request.
type PermissionStatus int

const (
	PermissionDenied PermissionStatus = iota
	PermissionGranted
)

func (s PermissionStatus) String() string {
	if s == PermissionGranted {
		return "granted"
	}
	return "denied"
}
