package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "pmarinho", creds["username"])
		assert.Equal(t, "segredo", creds["password"])

		_ = json.NewEncoder(w).Encode(map[string]string{"token": "jwt-de-teste"})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	token, err := client.Login(context.Background(), "pmarinho", "segredo")
	require.NoError(t, err)
	assert.Equal(t, "jwt-de-teste", token)
}

func TestLoginFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Credenciais inválidas"})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.Login(context.Background(), "pmarinho", "errada")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Credenciais inválidas", apiErr.Message)
}

func TestLoginEmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.Login(context.Background(), "u", "p")
	assert.ErrorContains(t, err, "no token")
}

func TestPostMultipart(t *testing.T) {
	spedPath := writeTempFile(t, "sped.txt", "|0000|registro|")
	xmlPath := writeTempFile(t, "nota.xml", "<nfe/>")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze/icms", r.URL.Path)
		assert.Equal(t, "Bearer token-sessao", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "1152,2152", r.FormValue("cfopsIgnorados"))

		sped, header, err := r.FormFile("spedFile")
		require.NoError(t, err)
		defer sped.Close()
		assert.Equal(t, "sped.txt", header.Filename)
		content, err := io.ReadAll(sped)
		require.NoError(t, err)
		assert.Equal(t, "|0000|registro|", string(content))

		xmls := r.MultipartForm.File["xmlFiles"]
		require.Len(t, xmls, 1)
		assert.Equal(t, "nota.xml", xmls[0].Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, StaticToken("token-sessao"))
	resp, err := client.PostMultipart(context.Background(), "/analyze/icms",
		[]FilePart{
			{Field: "spedFile", Filename: "sped.txt", Path: spedPath},
			{Field: "xmlFiles", Filename: "nota.xml", Path: xmlPath},
		},
		map[string]string{"cfopsIgnorados": "1152,2152"},
	)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":[]}`, string(resp.Body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestPostMultipartNoTokenNoHeader(t *testing.T) {
	path := writeTempFile(t, "a.txt", "x")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	client := NewClient(server.URL, StaticToken(""))
	_, err := client.PostMultipart(context.Background(), "/convert/francesinha",
		[]FilePart{{Field: "f", Filename: "a.txt", Path: path}}, nil)
	require.NoError(t, err)
}

func TestPostMultipartServerError(t *testing.T) {
	path := writeTempFile(t, "a.txt", "x")

	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{
			name:        "error field",
			status:      http.StatusUnprocessableEntity,
			body:        `{"error":"Arquivo SPED inválido"}`,
			wantMessage: "Arquivo SPED inválido",
		},
		{
			name:        "message field",
			status:      http.StatusBadRequest,
			body:        `{"message":"Parâmetro ausente"}`,
			wantMessage: "Parâmetro ausente",
		},
		{
			name:        "unstructured body",
			status:      http.StatusInternalServerError,
			body:        "<html>erro</html>",
			wantMessage: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, nil)
			_, err := client.PostMultipart(context.Background(), "/analyze/icms",
				[]FilePart{{Field: "f", Filename: "a.txt", Path: path}}, nil)
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
		})
	}
}

func TestPostMultipartMissingFile(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", nil)
	_, err := client.PostMultipart(context.Background(), "/analyze/icms",
		[]FilePart{{Field: "spedFile", Filename: "sped.txt", Path: "/nonexistent/sped.txt"}}, nil)
	assert.ErrorContains(t, err, "failed to open")
}

func TestAPIErrorString(t *testing.T) {
	withMessage := &APIError{StatusCode: 422, Message: "Arquivo inválido"}
	assert.Equal(t, "server returned 422: Arquivo inválido", withMessage.Error())

	bare := &APIError{StatusCode: 500}
	assert.Equal(t, "server returned 500", bare.Error())
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("", nil)
	assert.Equal(t, DefaultBaseURL, client.baseURL)

	trimmed := NewClient("http://localhost:8080/api/v1/", nil)
	assert.Equal(t, "http://localhost:8080/api/v1", trimmed.baseURL)
}
