package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DefaultProject is used when the host does not name a project.
const DefaultProject = "default"

// Project holds the per-project helpdesk settings.
type Project struct {
	ID                  string `yaml:"-"`
	ZendeskURL          string `yaml:"zendesk_url"`
	Username            string `yaml:"username"`
	Password            string `yaml:"password"`
	AutoCreateProblems  bool   `yaml:"auto_create_problems"`
	AutoCreateIncidents bool   `yaml:"auto_create_incidents"`
	InsecureSkipVerify  bool   `yaml:"insecure_skip_verify,omitempty"`
}

// Configured reports whether the integration is enabled for the project.
// A project without a helpdesk URL is treated as disabled.
func (p Project) Configured() bool {
	return strings.TrimSpace(p.ZendeskURL) != ""
}

// String never includes the password.
func (p Project) String() string {
	return fmt.Sprintf("project=%s url=%s user=%s problems=%t incidents=%t",
		p.ID, p.ZendeskURL, p.Username, p.AutoCreateProblems, p.AutoCreateIncidents)
}

// Source yields per-project settings.
type Source interface {
	Project(id string) (Project, error)
}

// ViperSource reads project settings from viper on every call, so edits to
// the environment or a reloaded file are picked up without a restart.
// The wrapped instance is never written after it is installed; reloads
// build a fresh one and swap it in with Replace.
type ViperSource struct {
	mu sync.RWMutex
	v  *viper.Viper
}

// NewViperSource wraps v. A nil v means the global viper instance.
func NewViperSource(v *viper.Viper) *ViperSource {
	if v == nil {
		v = viper.GetViper()
	}
	return &ViperSource{v: v}
}

// Replace installs v as the settings read by subsequent calls.
func (s *ViperSource) Replace(v *viper.Viper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = v
}

// Watch reloads file whenever it changes. Each reload reads into a new
// viper instance, so readers never observe a half-written config. onReload,
// if set, is called from the watcher goroutine after every attempt.
func (s *ViperSource) Watch(file string, onReload func(fsnotify.Event, error)) error {
	watcher := viper.New()
	if err := LoadInto(watcher, file); err != nil {
		return err
	}
	watcher.OnConfigChange(func(e fsnotify.Event) {
		fresh := viper.New()
		err := LoadInto(fresh, file)
		if err == nil {
			s.Replace(fresh)
		}
		if onReload != nil {
			onReload(e, err)
		}
	})
	watcher.WatchConfig()
	return nil
}

// Project implements Source.
func (s *ViperSource) Project(id string) (Project, error) {
	if id == "" {
		id = DefaultProject
	}
	if strings.ContainsAny(id, ". ") {
		return Project{}, fmt.Errorf("invalid project id %q", id)
	}

	s.mu.RLock()
	v := s.v
	s.mu.RUnlock()

	prefix := "projects." + id + "."
	p := Project{
		ID:                  id,
		ZendeskURL:          v.GetString(prefix + "zendesk_url"),
		Username:            v.GetString(prefix + "username"),
		Password:            v.GetString(prefix + "password"),
		AutoCreateProblems:  v.GetBool(prefix + "auto_create_problems"),
		AutoCreateIncidents: v.GetBool(prefix + "auto_create_incidents"),
		InsecureSkipVerify:  v.GetBool(prefix + "insecure_skip_verify"),
	}

	// Fallback to plain environment variables for the default project
	if id == DefaultProject {
		if p.ZendeskURL == "" {
			p.ZendeskURL = os.Getenv("ZENDESK_URL")
		}
		if p.Username == "" {
			p.Username = os.Getenv("ZENDESK_USERNAME")
		}
		if p.Password == "" {
			p.Password = os.Getenv("ZENDESK_PASSWORD")
		}
	}

	return p, nil
}

// StaticSource serves projects from memory.
type StaticSource struct {
	mu       sync.RWMutex
	projects map[string]Project
}

// NewStaticSource creates a StaticSource holding the given projects.
func NewStaticSource(projects ...Project) *StaticSource {
	s := &StaticSource{projects: make(map[string]Project)}
	for _, p := range projects {
		s.Put(p)
	}
	return s
}

// Put adds or replaces a project.
func (s *StaticSource) Put(p Project) {
	if p.ID == "" {
		p.ID = DefaultProject
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = p
}

// Project implements Source. Unknown ids yield an unconfigured project.
func (s *StaticSource) Project(id string) (Project, error) {
	if id == "" {
		id = DefaultProject
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return Project{ID: id}, nil
	}
	return p, nil
}
