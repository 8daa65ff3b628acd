//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclink-ai/doclink/internal/domain"
)

// TestE2E_Auth tests token authentication against the live server
func TestE2E_Auth(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.Bootstrap()

	t.Run("valid token reaches the API", func(t *testing.T) {
		resp, err := env.Get("/users/me", env.AuthToken)
		require.NoError(t, err)

		var user struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Tier  string `json:"tier"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &user))
		assert.Equal(t, env.UserID, user.ID)
		assert.Equal(t, "free", user.Tier)
	})

	t.Run("missing token returns 401", func(t *testing.T) {
		_, err := env.Get("/users/me", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("garbage token returns 401", func(t *testing.T) {
		_, err := env.Get("/users/me", "not.a-real-token")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("signed token for unknown user returns 401", func(t *testing.T) {
		_, err := env.Get("/users/me", env.MintTokenFor("no-such-user"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})
}

// TestE2E_Registration tests the idempotent registration endpoint
func TestE2E_Registration(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.Bootstrap()

	t.Run("register returns the existing account", func(t *testing.T) {
		meResp, err := env.Get("/users/me", env.AuthToken)
		require.NoError(t, err)
		var me struct {
			Email string `json:"email"`
		}
		require.NoError(t, json.Unmarshal(meResp.Data, &me))

		resp, err := env.Post("/users", map[string]string{
			"name":    "E2E",
			"surname": "Tester",
			"email":   me.Email,
		}, env.AuthToken)
		require.NoError(t, err)

		var user struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &user))
		assert.Equal(t, env.UserID, user.ID)
	})

	t.Run("new account starts with the default domain", func(t *testing.T) {
		resp, err := env.Get("/domains", env.AuthToken)
		require.NoError(t, err)

		var domains []struct {
			Name    string `json:"name"`
			Default bool   `json:"default"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &domains))
		require.Len(t, domains, 1)
		assert.Equal(t, "General", domains[0].Name)
		assert.True(t, domains[0].Default)
	})

	t.Run("usage reflects the free tier", func(t *testing.T) {
		resp, err := env.Get("/users/me/usage", env.AuthToken)
		require.NoError(t, err)

		var usage struct {
			Tier               string `json:"tier"`
			Files              int    `json:"files"`
			FileLimit          int    `json:"file_limit"`
			Domains            int    `json:"domains"`
			DomainLimit        int    `json:"domain_limit"`
			RemainingQuestions int    `json:"remaining_questions"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &usage))
		assert.Equal(t, "free", usage.Tier)
		assert.Equal(t, 0, usage.Files)
		assert.Equal(t, domain.FreeFileLimit, usage.FileLimit)
		assert.Equal(t, 1, usage.Domains)
		assert.Equal(t, domain.FreeDomainLimit, usage.DomainLimit)
		assert.Equal(t, domain.FreeQuestionLimit, usage.RemainingQuestions)
	})
}

// TestE2E_DomainLifecycle tests domain CRUD and selection
func TestE2E_DomainLifecycle(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.Bootstrap()

	var domainID string

	t.Run("create domain", func(t *testing.T) {
		resp, err := env.Post("/domains", map[string]string{"name": "Research"}, env.AuthToken)
		require.NoError(t, err)

		var d struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Default bool   `json:"default"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &d))
		assert.NotEmpty(t, d.ID)
		assert.Equal(t, "Research", d.Name)
		assert.False(t, d.Default)

		domainID = d.ID
	})

	t.Run("list shows default and created domain", func(t *testing.T) {
		resp, err := env.Get("/domains", env.AuthToken)
		require.NoError(t, err)

		var domains []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &domains))
		assert.Len(t, domains, 2)
	})

	t.Run("rename domain", func(t *testing.T) {
		_, err := env.Put("/domains/"+domainID, map[string]string{"name": "Research 2026"}, env.AuthToken)
		require.NoError(t, err)

		resp, err := env.Get("/domains", env.AuthToken)
		require.NoError(t, err)

		var domains []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &domains))
		found := false
		for _, d := range domains {
			if d.ID == domainID {
				found = true
				assert.Equal(t, "Research 2026", d.Name)
			}
		}
		assert.True(t, found)
	})

	t.Run("select empty domain", func(t *testing.T) {
		resp, err := env.Post("/domains/"+domainID+"/select", nil, env.AuthToken)
		require.NoError(t, err)

		var sel struct {
			DomainID string   `json:"domain_id"`
			Empty    bool     `json:"empty"`
			FileIDs  []string `json:"file_ids"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &sel))
		assert.Equal(t, domainID, sel.DomainID)
		assert.True(t, sel.Empty)
		assert.Empty(t, sel.FileIDs)
	})

	t.Run("selected flag shows up in list", func(t *testing.T) {
		resp, err := env.Get("/domains", env.AuthToken)
		require.NoError(t, err)

		var domains []struct {
			ID       string `json:"id"`
			Selected bool   `json:"selected"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &domains))
		for _, d := range domains {
			assert.Equal(t, d.ID == domainID, d.Selected)
		}
	})

	t.Run("delete selected domain clears selection", func(t *testing.T) {
		_, err := env.Delete("/domains/"+domainID, env.AuthToken)
		require.NoError(t, err)

		resp, err := env.Get("/domains", env.AuthToken)
		require.NoError(t, err)

		var domains []struct {
			ID       string `json:"id"`
			Selected bool   `json:"selected"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &domains))
		require.Len(t, domains, 1)
		assert.False(t, domains[0].Selected)
	})

	t.Run("default domain cannot be deleted", func(t *testing.T) {
		resp, err := env.Get("/domains", env.AuthToken)
		require.NoError(t, err)
		var domains []struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &domains))

		_, err = env.Delete("/domains/"+domains[0].ID, env.AuthToken)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "400")
	})
}

// TestE2E_UploadAndAsk tests the full stage-commit-select-ask journey
func TestE2E_UploadAndAsk(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.Bootstrap()

	fileContent := []byte("Quarterly Results\nRevenue grew 14 percent year over year. Operating costs stayed flat.\n")
	var domainID string
	var fileIDs []string

	t.Run("stage a file", func(t *testing.T) {
		resp, err := env.PostFile("/uploads", "results.txt", fileContent, env.AuthToken)
		require.NoError(t, err)

		var staged struct {
			FileName      string `json:"file_name"`
			SentenceCount int    `json:"sentence_count"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &staged))
		assert.Equal(t, "results.txt", staged.FileName)
		assert.Greater(t, staged.SentenceCount, 0)
	})

	t.Run("staged file appears in list", func(t *testing.T) {
		resp, err := env.Get("/uploads", env.AuthToken)
		require.NoError(t, err)

		var staged []struct {
			FileName string `json:"file_name"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &staged))
		require.Len(t, staged, 1)
		assert.Equal(t, "results.txt", staged[0].FileName)
	})

	t.Run("commit into the default domain", func(t *testing.T) {
		listResp, err := env.Get("/domains", env.AuthToken)
		require.NoError(t, err)
		var domains []struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(listResp.Data, &domains))
		require.Len(t, domains, 1)
		domainID = domains[0].ID

		resp, err := env.Post("/uploads/commit", map[string]string{"domain_id": domainID}, env.AuthToken)
		require.NoError(t, err)

		var commit struct {
			DomainID  string   `json:"domain_id"`
			FileIDs   []string `json:"file_ids"`
			FileNames []string `json:"file_names"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &commit))
		assert.Equal(t, domainID, commit.DomainID)
		require.Len(t, commit.FileIDs, 1)
		assert.Equal(t, []string{"results.txt"}, commit.FileNames)

		fileIDs = commit.FileIDs
	})

	t.Run("staging area is empty after commit", func(t *testing.T) {
		resp, err := env.Get("/uploads", env.AuthToken)
		require.NoError(t, err)

		var staged []struct {
			FileName string `json:"file_name"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &staged))
		assert.Empty(t, staged)
	})

	t.Run("select domain reports the committed file", func(t *testing.T) {
		resp, err := env.Post("/domains/"+domainID+"/select", nil, env.AuthToken)
		require.NoError(t, err)

		var sel struct {
			Empty     bool     `json:"empty"`
			FileIDs   []string `json:"file_ids"`
			FileNames []string `json:"file_names"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &sel))
		assert.False(t, sel.Empty)
		assert.Equal(t, fileIDs, sel.FileIDs)
		assert.Equal(t, []string{"results.txt"}, sel.FileNames)
	})

	t.Run("ask answers from the committed content", func(t *testing.T) {
		resp, err := env.Post("/ask", map[string]interface{}{
			"question": "How did revenue do?",
			"file_ids": fileIDs,
		}, env.AuthToken)
		require.NoError(t, err)

		var answer struct {
			Answer             string   `json:"answer"`
			Resources          []string `json:"resources"`
			RemainingQuestions int      `json:"remaining_questions"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &answer))
		assert.NotEmpty(t, answer.Answer)
		assert.Contains(t, answer.Resources, "results.txt")
		assert.Equal(t, domain.FreeQuestionLimit-1, answer.RemainingQuestions)
	})

	t.Run("ask with a foreign file is rejected", func(t *testing.T) {
		_, err := env.Post("/ask", map[string]interface{}{
			"question": "Anything?",
			"file_ids": []string{"not-in-this-domain"},
		}, env.AuthToken)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("remove file empties the domain", func(t *testing.T) {
		_, err := env.Delete("/domains/"+domainID+"/files/"+fileIDs[0], env.AuthToken)
		require.NoError(t, err)

		resp, err := env.Get("/domains/"+domainID+"/files", env.AuthToken)
		require.NoError(t, err)

		var files []struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &files))
		assert.Empty(t, files)
	})
}

// TestE2E_Quotas tests tier limits over the live API
func TestE2E_Quotas(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.Bootstrap()

	t.Run("domain limit on the free tier", func(t *testing.T) {
		// the default domain already occupies one slot
		for i := 0; i < domain.FreeDomainLimit-1; i++ {
			_, err := env.Post("/domains", map[string]string{"name": fmt.Sprintf("Topic %d", i)}, env.AuthToken)
			require.NoError(t, err)
		}

		_, err := env.Post("/domains", map[string]string{"name": "One Too Many"}, env.AuthToken)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("question limit on the free tier", func(t *testing.T) {
		_, err := env.PostFile("/uploads", "facts.txt", []byte("The sky is blue. Water is wet.\n"), env.AuthToken)
		require.NoError(t, err)

		listResp, err := env.Get("/domains", env.AuthToken)
		require.NoError(t, err)
		var domains []struct {
			ID      string `json:"id"`
			Default bool   `json:"default"`
		}
		require.NoError(t, json.Unmarshal(listResp.Data, &domains))
		var domainID string
		for _, d := range domains {
			if d.Default {
				domainID = d.ID
			}
		}
		require.NotEmpty(t, domainID)

		commitResp, err := env.Post("/uploads/commit", map[string]string{"domain_id": domainID}, env.AuthToken)
		require.NoError(t, err)
		var commit struct {
			FileIDs []string `json:"file_ids"`
		}
		require.NoError(t, json.Unmarshal(commitResp.Data, &commit))

		_, err = env.Post("/domains/"+domainID+"/select", nil, env.AuthToken)
		require.NoError(t, err)

		ask := map[string]interface{}{
			"question": "Is the sky blue?",
			"file_ids": commit.FileIDs,
		}
		for i := 0; i < domain.FreeQuestionLimit; i++ {
			_, err := env.Post("/ask", ask, env.AuthToken)
			require.NoError(t, err, "question %d should be admitted", i+1)
		}

		_, err = env.Post("/ask", ask, env.AuthToken)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
		assert.True(t, strings.Contains(err.Error(), "questions quota exceeded"), "rejection should name the question quota: %v", err)
	})
}
