package registry

import (
	"context"
	"errors"
	"maps"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"llmkeyring/i18n"
	"llmkeyring/provider"
	"llmkeyring/provider/testutil"
	"llmkeyring/storage"
	"llmkeyring/transport"
)

// memKV is an in-memory KV whose writes can be made to fail.
type memKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	setErr error
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memKV) SetMany(_ context.Context, entries ...storage.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	for _, e := range entries {
		if e.Value == nil {
			delete(m.data, e.Key)
			continue
		}
		m.data[e.Key] = append([]byte(nil), e.Value...)
	}
	return nil
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	kv      *memKV
	secrets *testutil.MemorySecrets
	tr      *testutil.FakeTransport
	reg     *Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		kv:      newMemKV(),
		secrets: testutil.NewMemorySecrets(),
		tr:      testutil.NewFakeTransport(),
	}
	f.reg = f.open(t)
	return f
}

// open builds a second registry over the same collaborators, as a restart would.
func (f *fixture) open(t *testing.T) *Registry {
	t.Helper()
	reg := New(Options{
		Store:     f.kv,
		Secrets:   f.secrets,
		Transport: f.tr,
		Now:       func() time.Time { return fixedNow },
	})
	if err := reg.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return reg
}

func (f *fixture) find(t *testing.T, name string) provider.Provider {
	t.Helper()
	for _, p := range f.reg.Providers() {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("no provider named %q", name)
	return provider.Provider{}
}

func TestBootstrap(t *testing.T) {
	f := newFixture(t)
	list := f.reg.Providers()

	if len(list) != 15 {
		t.Fatalf("bootstrapped %d providers, want 15", len(list))
	}

	wantNames := []string{
		"DeepSeek", "Kimi", "Aliyun native", "SiliconFlow", "Anthropic", "Google Gemini",
		"Azure OpenAI", "OpenRouter", "Together AI", "Mistral", "Groq", "Fireworks AI",
		"Zhipu GLM", "Baidu Qianfan", "Vertex AI Gemini",
	}
	for i, want := range wantNames {
		if list[i].Name != want {
			t.Errorf("provider %d name = %q, want %q", i, list[i].Name, want)
		}
		if !list[i].Enabled || list[i].LastTest.Status != provider.StatusUnknown {
			t.Errorf("%s: enabled=%v lastTest=%v", want, list[i].Enabled, list[i].LastTest.Status)
		}
	}

	def, ok := f.reg.Default()
	if !ok || def.ID != list[0].ID {
		t.Errorf("default = %v, %v; want first provider", def.ID, ok)
	}

	withRef := map[provider.Kind]bool{
		provider.KindAliyunNative: true,
		provider.KindGoogleGemini: true,
		provider.KindAzureOpenAI:  true,
		provider.KindVertexGemini: true,
	}
	for _, p := range list {
		if got := p.Auth.IsBearer(); got != withRef[p.Kind] {
			t.Errorf("%s: bearer = %v, want %v", p.Name, got, withRef[p.Kind])
		}
		if p.Auth.IsBearer() && !strings.HasPrefix(p.Auth.KeyRef, "prov_") {
			t.Errorf("%s: key ref %q lacks prov_ prefix", p.Name, p.Auth.KeyRef)
		}
	}

	or := f.find(t, "OpenRouter")
	want := map[string]string{"HTTP-Referer": "https://github.com/", "X-Title": "LLMKeyring"}
	if !maps.Equal(or.ExtraHeaders, want) {
		t.Errorf("OpenRouter headers = %v", or.ExtraHeaders)
	}
}

func TestBootstrapLocalized(t *testing.T) {
	reg := New(Options{Store: newMemKV(), Messages: i18n.New("zh-Hans")})
	if err := reg.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := reg.Providers()[3].Name; got != "硅基流动" {
		t.Errorf("SiliconFlow name in zh-Hans = %q", got)
	}
}

func TestLoadRestoresWithoutBootstrap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.reg.Providers()[0]
	if err := f.reg.Delete(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	second := f.reg.Providers()[0]
	if err := f.reg.SetDefault(ctx, second.ID); err != nil {
		t.Fatal(err)
	}

	again := f.open(t)
	got := again.Providers()
	if len(got) != 14 {
		t.Fatalf("reloaded %d providers, want 14", len(got))
	}
	if got[0].ID != second.ID || again.DefaultID() != second.ID {
		t.Errorf("reload order/default mismatch: first=%s default=%s", got[0].ID, again.DefaultID())
	}
}

func TestLoadDropsDanglingDefault(t *testing.T) {
	f := newFixture(t)
	f.kv.data[keyDefaultID] = []byte("no-such-id")

	again := f.open(t)
	if _, ok := again.Default(); ok {
		t.Error("dangling default id should be ignored")
	}
}

func TestLoadCorruptList(t *testing.T) {
	kv := newMemKV()
	kv.data[keyProviders] = []byte(`{not json`)
	if err := New(Options{Store: kv}).Load(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}

func TestAddAndTemplates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.reg.AddTemplate(ctx, "Blank")
	if err != nil {
		t.Fatalf("AddTemplate(blank): %v", err)
	}
	if p.Name != "New Provider" || p.Kind != provider.KindOpenAICompatible || p.ID == "" {
		t.Errorf("blank provider = %+v", p)
	}

	if _, err := f.reg.AddTemplate(ctx, "nope"); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("unknown template err = %v", err)
	}

	custom, err := f.reg.Add(ctx, provider.Provider{Name: "  Local  ", Kind: provider.KindOllama, BaseURL: provider.OllamaBase})
	if err != nil {
		t.Fatal(err)
	}
	if custom.Name != "Local" || custom.Auth.Type != provider.AuthNone || custom.LastTest.Status != provider.StatusUnknown {
		t.Errorf("Add did not normalize: %+v", custom)
	}

	list := f.reg.Providers()
	if list[len(list)-1].ID != custom.ID {
		t.Error("Add should append")
	}

	invalid := []provider.Provider{
		{Name: "", Kind: provider.KindOllama},
		{Name: "x", Kind: "bogus"},
		{Name: "x", Kind: provider.KindOllama, Auth: provider.AuthMethod{Type: provider.AuthBearer}},
		{ID: custom.ID, Name: "dup", Kind: provider.KindOllama},
	}
	for _, in := range invalid {
		if _, err := f.reg.Add(ctx, in); !errors.Is(err, ErrInvalidProvider) {
			t.Errorf("Add(%+v) err = %v, want ErrInvalidProvider", in, err)
		}
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.find(t, "Groq")
	p.DefaultModel = "llama-3.3-70b"
	p.Enabled = false
	if err := f.reg.Update(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, _ := f.open(t).Get(p.ID)
	if got.DefaultModel != "llama-3.3-70b" || got.Enabled {
		t.Errorf("update not persisted: %+v", got)
	}

	p.ID = "missing"
	if err := f.reg.Update(ctx, p); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Update missing = %v", err)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	gem := f.find(t, "Google Gemini")
	_ = f.secrets.SaveSecret(gem.Auth.KeyRef, "AIza-secret")
	if err := f.reg.SetDefault(ctx, gem.ID); err != nil {
		t.Fatal(err)
	}

	if err := f.reg.Delete(ctx, gem.ID); err != nil {
		t.Fatal(err)
	}
	if f.reg.DefaultID() != "" {
		t.Error("deleting the default provider must clear the default")
	}
	if _, ok, _ := f.secrets.ReadSecret(gem.Auth.KeyRef); ok {
		t.Error("secret of deleted provider still stored")
	}
	if _, err := f.reg.Get(gem.ID); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Get after delete = %v", err)
	}
	if err := f.reg.Delete(ctx, gem.ID); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("second delete = %v", err)
	}
}

func TestDeleteSecretFailureIgnored(t *testing.T) {
	f := newFixture(t)
	f.secrets.DeleteErr = errors.New("keychain locked")

	az := f.find(t, "Azure OpenAI")
	if err := f.reg.Delete(context.Background(), az.ID); err != nil {
		t.Fatalf("Delete should succeed when secret cleanup fails, got %v", err)
	}
	if _, err := f.reg.Get(az.ID); err == nil {
		t.Error("provider still present")
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  int
	}{
		{"to front", 0, 0},
		{"middle", 5, 5},
		{"past end clamps", 100, 14},
		{"negative clamps", -3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id := f.reg.Providers()[7].ID
			if err := f.reg.Move(context.Background(), id, tt.index); err != nil {
				t.Fatal(err)
			}
			list := f.open(t).Providers()
			if len(list) != 15 || list[tt.want].ID != id {
				t.Errorf("provider not at %d after move", tt.want)
			}
		})
	}

	f := newFixture(t)
	if err := f.reg.Move(context.Background(), "missing", 0); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Move missing = %v", err)
	}
}

func TestSetDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.reg.SetDefault(ctx, "missing"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("SetDefault missing = %v", err)
	}
	if err := f.reg.SetDefault(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.open(t).Default(); ok {
		t.Error("cleared default came back after reload")
	}
}

func TestTestRecordsLastTest(t *testing.T) {
	f := newFixture(t)
	f.tr.On("https://api.deepseek.com/v1/models", testutil.OK(`{"data":[{"id":"deepseek-chat"}]}`))
	f.tr.On("https://api.moonshot.cn/v1/models", testutil.Status(401, `{"error":"bad key"}`))

	ds := f.find(t, "DeepSeek")
	res, err := f.reg.Test(context.Background(), ds.ID)
	if err != nil || !res.OK() {
		t.Fatalf("Test = %+v, %v", res, err)
	}

	kimi := f.find(t, "Kimi")
	res, err = f.reg.Test(context.Background(), kimi.ID)
	if err != nil || res.Status != provider.StatusFailure {
		t.Fatalf("Test kimi = %+v, %v", res, err)
	}

	reloaded := f.open(t)
	got, _ := reloaded.Get(ds.ID)
	if got.LastTest.Status != provider.StatusSuccess || got.LastTest.At == nil || !got.LastTest.At.Equal(fixedNow) {
		t.Errorf("deepseek lastTest = %+v", got.LastTest)
	}
	got, _ = reloaded.Get(kimi.ID)
	if got.LastTest.Status != provider.StatusFailure || !strings.Contains(got.LastTest.Message, "bad key") {
		t.Errorf("kimi lastTest = %+v", got.LastTest)
	}

	if _, err := f.reg.Test(context.Background(), "missing"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Test missing = %v", err)
	}
}

func TestTestAll(t *testing.T) {
	f := newFixture(t)
	f.tr.Always(testutil.OK(`{"data":[{"id":"m"}],"models":[{"name":"m"}]}`))

	mistral := f.find(t, "Mistral")
	mistral.Enabled = false
	if err := f.reg.Update(context.Background(), mistral); err != nil {
		t.Fatal(err)
	}

	var (
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	results, err := f.reg.TestAll(context.Background(), func(id string, _ provider.TestResult, err error) {
		if err != nil {
			t.Errorf("%s: %v", id, err)
		}
		mu.Lock()
		seen[id] = true
		mu.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(results) != 14 || len(seen) != 14 {
		t.Fatalf("tested %d providers (callbacks %d), want 14", len(results), len(seen))
	}
	if _, ok := results[mistral.ID]; ok {
		t.Error("disabled provider was tested")
	}

	for _, p := range f.reg.Providers() {
		if p.ID == mistral.ID {
			if p.LastTest.Status != provider.StatusUnknown {
				t.Error("disabled provider lastTest changed")
			}
			continue
		}
		if p.LastTest.Status == provider.StatusUnknown {
			t.Errorf("%s lastTest not recorded", p.Name)
		}
	}
}

// gaugeTransport answers every request after a short delay and records the
// highest number of requests in flight.
type gaugeTransport struct {
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (g *gaugeTransport) Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*transport.Response, error) {
	g.mu.Lock()
	g.inFlight++
	g.peak = max(g.peak, g.inFlight)
	g.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()
	return &transport.Response{StatusCode: 200, Body: []byte(`{"data":[]}`)}, nil
}

func TestTestAllBoundedConcurrency(t *testing.T) {
	tr := &gaugeTransport{}
	reg := New(Options{Store: newMemKV(), Transport: tr, Concurrency: 2})
	if err := reg.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	results, err := reg.TestAll(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 15 {
		t.Errorf("got %d results", len(results))
	}
	if tr.peak > 2 {
		t.Errorf("peak in-flight requests = %d, want at most 2", tr.peak)
	}
}

func TestTestMany(t *testing.T) {
	f := newFixture(t)
	f.tr.Always(testutil.OK(`{"data":[{"id":"m"}]}`))
	ds := f.find(t, "DeepSeek")
	kimi := f.find(t, "Kimi")

	var (
		mu  sync.Mutex
		got = map[string]error{}
		oks int
	)
	f.reg.TestMany(context.Background(), []string{ds.ID, kimi.ID, "missing"}, func(id string, res provider.TestResult, err error) {
		mu.Lock()
		defer mu.Unlock()
		got[id] = err
		if res.OK() {
			oks++
		}
	})

	if len(got) != 3 {
		t.Fatalf("callbacks for %d ids, want 3", len(got))
	}
	if got[ds.ID] != nil || got[kimi.ID] != nil || oks != 2 {
		t.Errorf("results = %v (%d ok)", got, oks)
	}
	if !errors.Is(got["missing"], ErrProviderNotFound) {
		t.Errorf("missing id error = %v", got["missing"])
	}
	if p, _ := f.reg.Get(kimi.ID); p.LastTest.Status != provider.StatusSuccess {
		t.Errorf("Kimi lastTest = %s", p.LastTest.Status)
	}
}

func TestListModels(t *testing.T) {
	f := newFixture(t)
	f.tr.On("https://api.anthropic.com/v1/models", testutil.OK(`{"data":[{"id":"claude-b"},{"id":"claude-a"},{"id":"claude-b"}]}`))

	an := f.find(t, "Anthropic")
	an, err := f.reg.SaveAPIKey(context.Background(), an.ID, "sk-ant-test")
	if err != nil {
		t.Fatal(err)
	}

	res, err := f.reg.ListModels(context.Background(), an.ID)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(res.Models, ",") != "claude-b,claude-a" {
		t.Errorf("models = %v", res.Models)
	}
	if got := f.tr.LastCall().Headers["x-api-key"]; got != "sk-ant-test" {
		t.Errorf("x-api-key = %q", got)
	}

	before, _ := f.reg.Get(an.ID)
	if before.LastTest.Status != provider.StatusUnknown {
		t.Error("ListModels must not touch lastTest")
	}
}

func TestSaveAPIKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ds := f.find(t, "DeepSeek")
	got, err := f.reg.SaveAPIKey(ctx, ds.ID, "  sk-deepseek  ")
	if err != nil {
		t.Fatal(err)
	}
	wantRef := "prov_" + strings.ToUpper(ds.ID)
	if got.Auth.Type != provider.AuthBearer || got.Auth.KeyRef != wantRef {
		t.Errorf("auth = %+v, want bearer %s", got.Auth, wantRef)
	}
	if v, _, _ := f.secrets.ReadSecret(wantRef); v != "sk-deepseek" {
		t.Errorf("stored secret = %q", v)
	}

	// Existing references are reused.
	gem := f.find(t, "Google Gemini")
	got, err = f.reg.SaveAPIKey(ctx, gem.ID, "AIza-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Auth.KeyRef != gem.Auth.KeyRef {
		t.Errorf("ref changed from %s to %s", gem.Auth.KeyRef, got.Auth.KeyRef)
	}

	if _, err := f.reg.SaveAPIKey(ctx, ds.ID, "   "); err == nil {
		t.Error("empty key accepted")
	}
	if _, err := f.reg.SaveAPIKey(ctx, "missing", "k"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("missing provider err = %v", err)
	}
}

func TestSaveAPIKeyStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.secrets.SaveErr = errors.New("disk full")

	kimi := f.find(t, "Kimi")
	if _, err := f.reg.SaveAPIKey(context.Background(), kimi.ID, "sk-x"); err == nil {
		t.Fatal("expected error")
	}
	got, _ := f.reg.Get(kimi.ID)
	if got.Auth.Type != provider.AuthNone {
		t.Error("auth changed despite store failure")
	}
}

func TestRemoveAPIKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	az := f.find(t, "Azure OpenAI")
	if _, err := f.reg.SaveAPIKey(ctx, az.ID, "azure-key"); err != nil {
		t.Fatal(err)
	}

	f.secrets.DeleteErr = errors.New("locked")
	if _, err := f.reg.RemoveAPIKey(ctx, az.ID); err == nil {
		t.Fatal("expected store failure to propagate")
	}
	if got, _ := f.reg.Get(az.ID); !got.Auth.IsBearer() {
		t.Error("auth flipped despite failure")
	}

	f.secrets.DeleteErr = nil
	got, err := f.reg.RemoveAPIKey(ctx, az.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Auth.Type != provider.AuthNone {
		t.Errorf("auth = %+v", got.Auth)
	}
	if f.secrets.Len() != 0 {
		t.Error("secret not deleted")
	}
}

func TestClearAllAPIKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tr.Always(testutil.OK(`{"data":[{"id":"m"}]}`))

	ds := f.find(t, "DeepSeek")
	if _, err := f.reg.SaveAPIKey(ctx, ds.ID, "sk-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.reg.Test(ctx, ds.ID); err != nil {
		t.Fatal(err)
	}

	if err := f.reg.ClearAllAPIKeys(ctx); err != nil {
		t.Fatal(err)
	}
	if f.secrets.Len() != 0 {
		t.Error("secrets remain")
	}
	for _, p := range f.open(t).Providers() {
		if p.Auth.Type != provider.AuthNone || p.LastTest.Status != provider.StatusUnknown {
			t.Errorf("%s: auth=%v lastTest=%v", p.Name, p.Auth.Type, p.LastTest.Status)
		}
	}
}

func TestClearAllAPIKeysStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.secrets.DeleteErr = errors.New("locked")

	if err := f.reg.ClearAllAPIKeys(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !f.find(t, "Vertex AI Gemini").Auth.IsBearer() {
		t.Error("providers changed despite failure")
	}
}

func TestSwitchMode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	al := f.find(t, "Aliyun native")
	got, ok, err := f.reg.SwitchMode(ctx, al.ID)
	if err != nil || !ok {
		t.Fatalf("SwitchMode = %v, %v", ok, err)
	}
	if got.Kind != provider.KindOpenAICompatible || got.BaseURL != provider.AliyunCompatibleBase {
		t.Errorf("after switch: %s %s", got.Kind, got.BaseURL)
	}

	got, ok, _ = f.reg.SwitchMode(ctx, al.ID)
	if !ok || got.Kind != provider.KindAliyunNative || got.BaseURL != provider.AliyunNativeBase {
		t.Errorf("after switching back: %s %s", got.Kind, got.BaseURL)
	}

	ds := f.find(t, "DeepSeek")
	got, ok, err = f.reg.SwitchMode(ctx, ds.ID)
	if err != nil || ok || got.ID != ds.ID {
		t.Errorf("SwitchMode on deepseek = %v, %v", ok, err)
	}
}

func TestApplySuggestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.reg.AddTemplate(ctx, BlankTemplate)
	if err != nil {
		t.Fatal(err)
	}

	got, ok, err := f.reg.ApplySuggestion(ctx, p.ID, "https://api.groq.com/openai/v1/chat/completions")
	if err != nil || !ok {
		t.Fatalf("ApplySuggestion = %v, %v", ok, err)
	}
	if got.Kind != provider.KindOpenAICompatible || got.BaseURL != "https://api.groq.com/openai" {
		t.Errorf("suggested %s %s", got.Kind, got.BaseURL)
	}

	_, ok, err = f.reg.ApplySuggestion(ctx, p.ID, "https://example.com")
	if err != nil || ok {
		t.Errorf("unknown host: ok=%v err=%v", ok, err)
	}
}

func TestPersistFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.kv.setErr = errors.New("disk full")

	before := f.reg.Providers()
	if err := f.reg.Delete(ctx, before[0].ID); err == nil {
		t.Fatal("expected persist error")
	}
	if _, err := f.reg.AddTemplate(ctx, "groq"); err == nil {
		t.Fatal("expected persist error")
	}
	if err := f.reg.SetDefault(ctx, ""); err == nil {
		t.Fatal("expected persist error")
	}

	after := f.reg.Providers()
	if len(after) != len(before) || after[0].ID != before[0].ID {
		t.Error("in-memory list changed despite persist failure")
	}
	if f.reg.DefaultID() != before[0].ID {
		t.Error("default changed despite persist failure")
	}
}

func TestConcurrentMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.reg.AddTemplate(ctx, "together"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if n := len(f.open(t).Providers()); n != 25 {
		t.Errorf("persisted %d providers, want 25", n)
	}
}

func TestWithSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llmkeyring.db")
	kv, err := storage.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	reg := New(Options{Store: kv})
	if err := reg.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	ids := reg.Providers()
	kv.Close()

	kv, err = storage.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()

	again := New(Options{Store: kv})
	if err := again.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if again.DefaultID() != ids[0].ID || len(again.Providers()) != len(ids) {
		t.Error("sqlite round trip lost providers or default")
	}
}
