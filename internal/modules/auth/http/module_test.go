package http

import (
	"bytes"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deviceauth/internal/modules/auth/identity"
	"deviceauth/internal/modules/auth/service"
	phttp "deviceauth/internal/platform/http"
	"deviceauth/internal/platform/security"
)

const e2eDevice = "device-e2e-0001"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	jwt := security.NewJWTManager("test-secret", "deviceauth", "deviceauth-api", 15*time.Minute)
	mod := NewModuleMemory(identity.NewStaticProvider(), jwt, service.Config{
		AccessTTL:   15 * time.Minute,
		RefreshTTL:  30 * 24 * time.Hour,
		CodeTTL:     5 * time.Minute,
		AttemptTTL:  15 * time.Minute,
		AuthBaseURL: "http://localhost:8080",
	})
	return phttp.NewServer(phttp.Options{AppName: "deviceauth-test"}, mod)
}

// doJSON гоняет запрос через app.Test и разбирает JSON-ответ.
func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return resp.StatusCode, out
}

func TestHandoffEndToEnd(t *testing.T) {
	app := newTestApp(t)

	// 1. устройство стартует попытку
	status, body := doJSON(t, app, nethttp.MethodPost, "/api/v1/device/initiate",
		fiber.Map{"device_id": e2eDevice}, nil)
	require.Equal(t, nethttp.StatusOK, status)
	pollToken, _ := body["poll_token"].(string)
	require.NotEmpty(t, pollToken)
	require.Contains(t, body["auth_url"], e2eDevice)

	// 2. до логина в браузере поллинг отвечает pending
	status, body = doJSON(t, app, nethttp.MethodGet,
		"/api/v1/device/poll?device_id="+e2eDevice+"&poll_token="+pollToken, nil, nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, "pending", body["status"])

	// 3. браузерная нога: логин у провайдера → код
	status, body = doJSON(t, app, nethttp.MethodPost, "/api/v1/device/callback", fiber.Map{
		"device_id":      e2eDevice,
		"provider_token": "alice:alice@example.com",
		"method":         "social",
		"provider":       "google",
	}, nil)
	require.Equal(t, nethttp.StatusOK, status)
	code, _ := body["code"].(string)
	require.NotEmpty(t, code)
	require.Contains(t, body["deep_link"], code)

	// 4. поллинг видит готовый код
	status, body = doJSON(t, app, nethttp.MethodGet,
		"/api/v1/device/poll?device_id="+e2eDevice+"&poll_token="+pollToken, nil, nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, "ready", body["status"])
	require.Equal(t, code, body["code"])

	// 5. обмен кода на пару токенов
	status, body = doJSON(t, app, nethttp.MethodPost, "/api/v1/device/token",
		fiber.Map{"code": code, "device_name": "Test Phone"},
		map[string]string{HeaderDeviceID: e2eDevice})
	require.Equal(t, nethttp.StatusOK, status)
	accessToken, _ := body["access_token"].(string)
	refreshToken, _ := body["refresh_token"].(string)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)
	user, _ := body["user"].(map[string]any)
	require.Equal(t, "alice@example.com", user["email"])

	// 6. код одноразовый
	status, body = doJSON(t, app, nethttp.MethodPost, "/api/v1/device/token",
		fiber.Map{"code": code},
		map[string]string{HeaderDeviceID: e2eDevice})
	assert.Equal(t, nethttp.StatusConflict, status)
	assert.Equal(t, "CODE_ALREADY_USED", body["error_code"])

	// 7. защищённая ручка по access-токену
	auth := map[string]string{"Authorization": "Bearer " + accessToken}
	status, body = doJSON(t, app, nethttp.MethodGet, "/api/v1/user", nil, auth)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "alice@example.com", body["email"])

	// 8. ротация refresh-токена
	status, body = doJSON(t, app, nethttp.MethodPost, "/api/v1/refresh",
		fiber.Map{"refresh_token": refreshToken}, nil)
	require.Equal(t, nethttp.StatusOK, status)
	rotatedRefresh, _ := body["refresh_token"].(string)
	require.NotEmpty(t, rotatedRefresh)
	require.NotEqual(t, refreshToken, rotatedRefresh)

	// 9. повтор старого refresh — детект кражи
	status, body = doJSON(t, app, nethttp.MethodPost, "/api/v1/refresh",
		fiber.Map{"refresh_token": refreshToken}, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "REFRESH_REUSE_DETECTED", body["error_code"])

	// 10. после детекта сессии устройства мертвы — и access, и новый refresh
	status, body = doJSON(t, app, nethttp.MethodGet, "/api/v1/user", nil, auth)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "SESSION_INVALID", body["error_code"])

	status, body = doJSON(t, app, nethttp.MethodPost, "/api/v1/refresh",
		fiber.Map{"refresh_token": rotatedRefresh}, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_INVALID", body["error_code"])
}

func TestPollHidesCodeWithoutToken(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, nethttp.MethodPost, "/api/v1/device/initiate",
		fiber.Map{"device_id": e2eDevice}, nil)
	require.Equal(t, nethttp.StatusOK, status)
	pollToken, _ := body["poll_token"].(string)

	status, _ = doJSON(t, app, nethttp.MethodPost, "/api/v1/device/callback", fiber.Map{
		"device_id":      e2eDevice,
		"provider_token": "alice:alice@example.com",
	}, nil)
	require.Equal(t, nethttp.StatusOK, status)

	// без poll-токена код не отдаётся
	status, body = doJSON(t, app, nethttp.MethodGet,
		"/api/v1/device/poll?device_id="+e2eDevice, nil, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "pending", body["status"])
	assert.NotContains(t, body, "code")

	// с валидным — отдаётся
	status, body = doJSON(t, app, nethttp.MethodGet,
		"/api/v1/device/poll?device_id="+e2eDevice+"&poll_token="+pollToken, nil, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "ready", body["status"])
}

func TestDeviceMismatchOnExchange(t *testing.T) {
	app := newTestApp(t)

	status, _ := doJSON(t, app, nethttp.MethodPost, "/api/v1/device/initiate",
		fiber.Map{"device_id": e2eDevice}, nil)
	require.Equal(t, nethttp.StatusOK, status)

	status, body := doJSON(t, app, nethttp.MethodPost, "/api/v1/device/callback", fiber.Map{
		"device_id":      e2eDevice,
		"provider_token": "alice:alice@example.com",
	}, nil)
	require.Equal(t, nethttp.StatusOK, status)
	code, _ := body["code"].(string)

	status, body = doJSON(t, app, nethttp.MethodPost, "/api/v1/device/token",
		fiber.Map{"code": code},
		map[string]string{HeaderDeviceID: "device-e2e-9999"})
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, "DEVICE_MISMATCH", body["error_code"])
}

func TestValidationErrors(t *testing.T) {
	app := newTestApp(t)

	// короткий device_id
	status, body := doJSON(t, app, nethttp.MethodPost, "/api/v1/device/initiate",
		fiber.Map{"device_id": "short"}, nil)
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body["error_code"])

	// обмен без заголовка устройства
	status, body = doJSON(t, app, nethttp.MethodPost, "/api/v1/device/token",
		fiber.Map{"code": "ABCDEFGHJKMNPQRS"}, nil)
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "INVALID_FIELDS", body["error_code"])

	// незнакомый код
	status, body = doJSON(t, app, nethttp.MethodPost, "/api/v1/device/token",
		fiber.Map{"code": "ABCDEFGHJKMNPQRS"},
		map[string]string{HeaderDeviceID: e2eDevice})
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error_code"])
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/v1/user", "/api/v1/user/devices"} {
		status, body := doJSON(t, app, nethttp.MethodGet, path, nil, nil)
		assert.Equal(t, nethttp.StatusUnauthorized, status)
		assert.Equal(t, "UNAUTHORIZED", body["error_code"])
	}

	status, body := doJSON(t, app, nethttp.MethodGet, "/api/v1/user", nil,
		map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_INVALID", body["error_code"])
}

func TestDevicesEndpoints(t *testing.T) {
	app := newTestApp(t)

	login := func(device string) (access string) {
		t.Helper()
		status, _ := doJSON(t, app, nethttp.MethodPost, "/api/v1/device/initiate",
			fiber.Map{"device_id": device}, nil)
		require.Equal(t, nethttp.StatusOK, status)
		status, body := doJSON(t, app, nethttp.MethodPost, "/api/v1/device/callback", fiber.Map{
			"device_id":      device,
			"provider_token": "alice:alice@example.com",
		}, nil)
		require.Equal(t, nethttp.StatusOK, status)
		code, _ := body["code"].(string)
		status, body = doJSON(t, app, nethttp.MethodPost, "/api/v1/device/token",
			fiber.Map{"code": code}, map[string]string{HeaderDeviceID: device})
		require.Equal(t, nethttp.StatusOK, status)
		access, _ = body["access_token"].(string)
		return access
	}

	phone := login(e2eDevice)
	login("device-e2e-0002")

	auth := map[string]string{"Authorization": "Bearer " + phone}

	status, body := doJSON(t, app, nethttp.MethodGet, "/api/v1/user/devices", nil, auth)
	require.Equal(t, nethttp.StatusOK, status)
	assert.EqualValues(t, 2, body["total"])

	// текущее устройство отозвать нельзя
	status, body = doJSON(t, app, nethttp.MethodDelete, "/api/v1/user/devices/"+e2eDevice, nil, auth)
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "CANNOT_REVOKE_CURRENT_DEVICE", body["error_code"])

	// второе — можно
	status, _ = doJSON(t, app, nethttp.MethodDelete, "/api/v1/user/devices/device-e2e-0002", nil, auth)
	require.Equal(t, nethttp.StatusOK, status)

	// logout гасит текущую сессию
	status, _ = doJSON(t, app, nethttp.MethodPost, "/api/v1/logout", nil, auth)
	require.Equal(t, nethttp.StatusOK, status)
	status, body = doJSON(t, app, nethttp.MethodGet, "/api/v1/user", nil, auth)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "SESSION_INVALID", body["error_code"])
}
