package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fakhrymubarak/weather-now/internal/config"
	"github.com/fakhrymubarak/weather-now/internal/model"
	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrUnknownDevice        = errors.New("unknown device")
	ErrPermissionNotGranted = errors.New("location permission not granted")
	ErrPositionUnavailable  = errors.New("current position unavailable")
	ErrInvalidPosition      = errors.New("invalid position")
)

const (
	permissionUndetermined = "undetermined"
	permissionGranted      = "granted"
	permissionDenied       = "denied"
)

func permissionKey(deviceID string) string { return "geo:permission:" + deviceID }
func positionKey(deviceID string) string   { return "geo:position:" + deviceID }

type storedPosition struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ReportedAt time.Time `json:"reported_at"`
}

// Registry keeps short-lived device location sessions in Redis. A device registers, answers
// the permission prompt and reports positions; every key carries a TTL so nothing outlives
// the session.
type Registry struct {
	client        redisv9.Cmdable
	permissionTTL time.Duration
	positionTTL   time.Duration
	logger        *zap.SugaredLogger
	now           func() time.Time
}

func NewRegistry(client redisv9.Cmdable) *Registry {
	return &Registry{
		client:        client,
		permissionTTL: config.GetPermissionTTL(),
		positionTTL:   config.GetPositionTTL(),
		logger:        config.GetLogger(),
		now:           time.Now,
	}
}

// Register opens a session for a new device whose permission is not yet decided.
func (r *Registry) Register(ctx context.Context) (string, error) {
	deviceID := uuid.NewString()
	if err := r.client.Set(ctx, permissionKey(deviceID), permissionUndetermined, r.permissionTTL).Err(); err != nil {
		return "", err
	}
	r.logger.Infow("Device registered", "device_id", deviceID)
	return deviceID, nil
}

// SetPermission records the answer to the location prompt. Revoking drops any stored position.
func (r *Registry) SetPermission(ctx context.Context, deviceID string, granted bool) error {
	n, err := r.client.Exists(ctx, permissionKey(deviceID)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUnknownDevice
	}

	status := permissionDenied
	if granted {
		status = permissionGranted
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		pipe.Set(ctx, permissionKey(deviceID), status, r.permissionTTL)
		if !granted {
			pipe.Del(ctx, positionKey(deviceID))
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Infow("Device permission updated", "device_id", deviceID, "status", status)
	return nil
}

// ReportPosition stores the device's latest position. Only devices that granted permission may report.
func (r *Registry) ReportPosition(ctx context.Context, deviceID string, pos model.Coordinates) error {
	if err := pos.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}

	status, err := r.client.Get(ctx, permissionKey(deviceID)).Result()
	if errors.Is(err, redisv9.Nil) {
		return ErrUnknownDevice
	}
	if err != nil {
		return err
	}
	if status != permissionGranted {
		return ErrPermissionNotGranted
	}

	b, err := json.Marshal(storedPosition{
		Latitude:   pos.Latitude,
		Longitude:  pos.Longitude,
		ReportedAt: r.now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		pipe.Set(ctx, positionKey(deviceID), b, r.positionTTL)
		pipe.Expire(ctx, permissionKey(deviceID), r.permissionTTL)
		return nil
	})
	return err
}

// Forget ends the device session.
func (r *Registry) Forget(ctx context.Context, deviceID string) error {
	return r.client.Del(ctx, permissionKey(deviceID), positionKey(deviceID)).Err()
}

// Provider returns the geolocation view of one device.
func (r *Registry) Provider(deviceID string) *DeviceProvider {
	return &DeviceProvider{registry: r, deviceID: deviceID}
}

// DeviceProvider answers permission and position requests from a device's session.
type DeviceProvider struct {
	registry *Registry
	deviceID string
}

// RequestPermission is granted only when the device explicitly granted it.
// Unknown or expired sessions count as denied.
func (p *DeviceProvider) RequestPermission(ctx context.Context) (model.PermissionStatus, error) {
	status, err := p.registry.client.Get(ctx, permissionKey(p.deviceID)).Result()
	if errors.Is(err, redisv9.Nil) {
		return model.PermissionDenied, nil
	}
	if err != nil {
		return model.PermissionDenied, err
	}
	if status == permissionGranted {
		return model.PermissionGranted, nil
	}
	return model.PermissionDenied, nil
}

func (p *DeviceProvider) GetCurrentPosition(ctx context.Context) (model.Coordinates, error) {
	val, err := p.registry.client.Get(ctx, positionKey(p.deviceID)).Result()
	if errors.Is(err, redisv9.Nil) {
		return model.Coordinates{}, ErrPositionUnavailable
	}
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}

	var stored storedPosition
	if err := json.Unmarshal([]byte(val), &stored); err != nil {
		return model.Coordinates{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	return model.Coordinates{Latitude: stored.Latitude, Longitude: stored.Longitude}, nil
}
