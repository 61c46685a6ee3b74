package api

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ProjectStatus represents the processing state of a project
type ProjectStatus string

const (
	ProjectStatusDiscovered ProjectStatus = "discovered"
	ProjectStatusAnalyzed   ProjectStatus = "analyzed"
	ProjectStatusProcessed  ProjectStatus = "processed"
	ProjectStatusPublished  ProjectStatus = "published"
	ProjectStatusArchived   ProjectStatus = "archived"
)

// IsValid reports whether the status is a known project status
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusDiscovered, ProjectStatusAnalyzed, ProjectStatusProcessed,
		ProjectStatusPublished, ProjectStatusArchived:
		return true
	}
	return false
}

// ContentStatus represents the lifecycle state of a content record
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusEnhanced  ContentStatus = "enhanced"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusArchived  ContentStatus = "archived"
)

// IsValid reports whether the status is a known content status
func (s ContentStatus) IsValid() bool {
	switch s {
	case ContentStatusDraft, ContentStatusEnhanced, ContentStatusPublished, ContentStatusArchived:
		return true
	}
	return false
}

// AllowedPlatforms lists the source platforms projects can come from
var AllowedPlatforms = []string{"github", "huggingface", "gitlab", "kaggle", "bitbucket"}

// AllowedContentTypes lists the supported generated content types
var AllowedContentTypes = []string{"blog", "article", "tutorial", "guide", "review"}

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Project represents a discovered software project from an external platform
type Project struct {
	ID           int64         `json:"id"`
	Platform     string        `json:"platform"`
	URL          string        `json:"url"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Stars        int           `json:"stars"`
	Language     string        `json:"language,omitempty"`
	Topics       []string      `json:"topics"`
	QualityScore *float64      `json:"quality_score,omitempty"`
	Status       ProjectStatus `json:"status"`
	ScrapedAt    time.Time     `json:"scraped_at"`
}

// Content represents generated content derived from a project
type Content struct {
	ID              int64         `json:"id"`
	ProjectID       int64         `json:"project_id"`
	ContentType     string        `json:"content_type"`
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	RawContent      string        `json:"raw_content,omitempty"`
	EnhancedContent string        `json:"enhanced_content,omitempty"`
	MetaDescription string        `json:"meta_description,omitempty"`
	Tags            []string      `json:"tags"`
	Status          ContentStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
}

// ProjectFilter narrows project listings
type ProjectFilter struct {
	Platform string
	Status   string
	Language string
}

// ContentFilter narrows content listings
type ContentFilter struct {
	ProjectID   int64 // 0 means no filter
	ContentType string
	Status      string
}

// Store defines the persistence operations for projects and content.
// Deleting a project cascades to its content records.
type Store interface {
	// Project operations
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, id int64) (*Project, error)
	ListProjects(ctx context.Context, filter ProjectFilter, skip, limit int) ([]*Project, int64, error)
	UpdateProject(ctx context.Context, project *Project) error
	DeleteProject(ctx context.Context, id int64) error

	// Content operations
	CreateContent(ctx context.Context, content *Content) error
	GetContent(ctx context.Context, id int64) (*Content, error)
	GetContentBySlug(ctx context.Context, slug string) (*Content, error)
	ListContent(ctx context.Context, filter ContentFilter, skip, limit int) ([]*Content, int64, error)
	UpdateContent(ctx context.Context, content *Content) error
	DeleteContent(ctx context.Context, id int64) error

	// Aggregate counts for health reporting
	CountProjects(ctx context.Context) (int64, error)
	CountContent(ctx context.Context) (int64, error)

	// Health checks
	HealthCheck(ctx context.Context) error

	Close() error
}

// CreateProjectRequest is the payload for creating a project
type CreateProjectRequest struct {
	Platform     string   `json:"platform"`
	URL          string   `json:"url"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Stars        *int     `json:"stars"`
	Language     string   `json:"language"`
	Topics       []string `json:"topics"`
	QualityScore *float64 `json:"quality_score"`
	Status       string   `json:"status"`
}

// Validate checks the request and returns a validation error if invalid
func (r *CreateProjectRequest) Validate() error {
	if err := validatePlatform(r.Platform); err != nil {
		return err
	}
	if err := validateURL(r.URL); err != nil {
		return err
	}
	if r.Name == "" || len(r.Name) > 255 {
		return fmt.Errorf("name must be between 1 and 255 characters")
	}
	if len(r.Language) > 50 {
		return fmt.Errorf("language must be at most 50 characters")
	}
	if r.Stars != nil && *r.Stars < 0 {
		return fmt.Errorf("stars must be non-negative")
	}
	if err := validateQualityScore(r.QualityScore); err != nil {
		return err
	}
	if r.Status != "" && !ProjectStatus(strings.ToLower(r.Status)).IsValid() {
		return fmt.Errorf("invalid status: %s", r.Status)
	}
	return nil
}

// ToProject builds a Project from the request, applying defaults
func (r *CreateProjectRequest) ToProject() *Project {
	stars := 0
	if r.Stars != nil {
		stars = *r.Stars
	}
	status := ProjectStatusDiscovered
	if r.Status != "" {
		status = ProjectStatus(strings.ToLower(r.Status))
	}
	topics := r.Topics
	if topics == nil {
		topics = []string{}
	}
	return &Project{
		Platform:     strings.ToLower(r.Platform),
		URL:          r.URL,
		Name:         r.Name,
		Description:  r.Description,
		Stars:        stars,
		Language:     r.Language,
		Topics:       topics,
		QualityScore: r.QualityScore,
		Status:       status,
	}
}

// UpdateProjectRequest is the payload for updating a project.
// Nil fields are left unchanged.
type UpdateProjectRequest struct {
	Platform     *string   `json:"platform"`
	URL          *string   `json:"url"`
	Name         *string   `json:"name"`
	Description  *string   `json:"description"`
	Stars        *int      `json:"stars"`
	Language     *string   `json:"language"`
	Topics       *[]string `json:"topics"`
	QualityScore *float64  `json:"quality_score"`
	Status       *string   `json:"status"`
}

// Validate checks the request and returns a validation error if invalid
func (r *UpdateProjectRequest) Validate() error {
	if r.Platform != nil {
		if err := validatePlatform(*r.Platform); err != nil {
			return err
		}
	}
	if r.URL != nil {
		if err := validateURL(*r.URL); err != nil {
			return err
		}
	}
	if r.Name != nil && (*r.Name == "" || len(*r.Name) > 255) {
		return fmt.Errorf("name must be between 1 and 255 characters")
	}
	if r.Language != nil && len(*r.Language) > 50 {
		return fmt.Errorf("language must be at most 50 characters")
	}
	if r.Stars != nil && *r.Stars < 0 {
		return fmt.Errorf("stars must be non-negative")
	}
	if err := validateQualityScore(r.QualityScore); err != nil {
		return err
	}
	if r.Status != nil && !ProjectStatus(strings.ToLower(*r.Status)).IsValid() {
		return fmt.Errorf("invalid status: %s", *r.Status)
	}
	return nil
}

// Apply copies the non-nil fields onto the project
func (r *UpdateProjectRequest) Apply(p *Project) {
	if r.Platform != nil {
		p.Platform = strings.ToLower(*r.Platform)
	}
	if r.URL != nil {
		p.URL = *r.URL
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Stars != nil {
		p.Stars = *r.Stars
	}
	if r.Language != nil {
		p.Language = *r.Language
	}
	if r.Topics != nil {
		p.Topics = *r.Topics
	}
	if r.QualityScore != nil {
		p.QualityScore = r.QualityScore
	}
	if r.Status != nil {
		p.Status = ProjectStatus(strings.ToLower(*r.Status))
	}
}

// CreateContentRequest is the payload for creating a content record
type CreateContentRequest struct {
	ProjectID       int64    `json:"project_id"`
	ContentType     string   `json:"content_type"`
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	RawContent      string   `json:"raw_content"`
	EnhancedContent string   `json:"enhanced_content"`
	MetaDescription string   `json:"meta_description"`
	Tags            []string `json:"tags"`
	Status          string   `json:"status"`
}

// Validate checks the request and returns a validation error if invalid
func (r *CreateContentRequest) Validate() error {
	if r.ProjectID <= 0 {
		return fmt.Errorf("project_id is required")
	}
	if err := validateContentType(r.ContentType); err != nil {
		return err
	}
	if r.Title == "" || len(r.Title) > 255 {
		return fmt.Errorf("title must be between 1 and 255 characters")
	}
	if err := validateSlug(r.Slug); err != nil {
		return err
	}
	if r.RawContent == "" {
		return fmt.Errorf("raw_content is required")
	}
	if len(r.MetaDescription) > 160 {
		return fmt.Errorf("meta_description must be at most 160 characters")
	}
	if r.Status != "" && !ContentStatus(strings.ToLower(r.Status)).IsValid() {
		return fmt.Errorf("invalid status: %s", r.Status)
	}
	return nil
}

// ToContent builds a Content from the request, applying defaults
func (r *CreateContentRequest) ToContent() *Content {
	status := ContentStatusDraft
	if r.Status != "" {
		status = ContentStatus(strings.ToLower(r.Status))
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return &Content{
		ProjectID:       r.ProjectID,
		ContentType:     strings.ToLower(r.ContentType),
		Title:           r.Title,
		Slug:            r.Slug,
		RawContent:      r.RawContent,
		EnhancedContent: r.EnhancedContent,
		MetaDescription: r.MetaDescription,
		Tags:            tags,
		Status:          status,
	}
}

// UpdateContentRequest is the payload for updating a content record.
// Nil fields are left unchanged.
type UpdateContentRequest struct {
	ProjectID       *int64    `json:"project_id"`
	ContentType     *string   `json:"content_type"`
	Title           *string   `json:"title"`
	Slug            *string   `json:"slug"`
	RawContent      *string   `json:"raw_content"`
	EnhancedContent *string   `json:"enhanced_content"`
	MetaDescription *string   `json:"meta_description"`
	Tags            *[]string `json:"tags"`
	Status          *string   `json:"status"`
}

// Validate checks the request and returns a validation error if invalid
func (r *UpdateContentRequest) Validate() error {
	if r.ProjectID != nil && *r.ProjectID <= 0 {
		return fmt.Errorf("project_id must be positive")
	}
	if r.ContentType != nil {
		if err := validateContentType(*r.ContentType); err != nil {
			return err
		}
	}
	if r.Title != nil && (*r.Title == "" || len(*r.Title) > 255) {
		return fmt.Errorf("title must be between 1 and 255 characters")
	}
	if r.Slug != nil {
		if err := validateSlug(*r.Slug); err != nil {
			return err
		}
	}
	if r.RawContent != nil && *r.RawContent == "" {
		return fmt.Errorf("raw_content must not be empty")
	}
	if r.MetaDescription != nil && len(*r.MetaDescription) > 160 {
		return fmt.Errorf("meta_description must be at most 160 characters")
	}
	if r.Status != nil && !ContentStatus(strings.ToLower(*r.Status)).IsValid() {
		return fmt.Errorf("invalid status: %s", *r.Status)
	}
	return nil
}

// Apply copies the non-nil fields onto the content record
func (r *UpdateContentRequest) Apply(c *Content) {
	if r.ProjectID != nil {
		c.ProjectID = *r.ProjectID
	}
	if r.ContentType != nil {
		c.ContentType = strings.ToLower(*r.ContentType)
	}
	if r.Title != nil {
		c.Title = *r.Title
	}
	if r.Slug != nil {
		c.Slug = *r.Slug
	}
	if r.RawContent != nil {
		c.RawContent = *r.RawContent
	}
	if r.EnhancedContent != nil {
		c.EnhancedContent = *r.EnhancedContent
	}
	if r.MetaDescription != nil {
		c.MetaDescription = *r.MetaDescription
	}
	if r.Tags != nil {
		c.Tags = *r.Tags
	}
	if r.Status != nil {
		c.Status = ContentStatus(strings.ToLower(*r.Status))
	}
}

func validatePlatform(platform string) error {
	if platform == "" || len(platform) > 50 {
		return fmt.Errorf("platform must be between 1 and 50 characters")
	}
	lower := strings.ToLower(platform)
	for _, allowed := range AllowedPlatforms {
		if lower == allowed {
			return nil
		}
	}
	return fmt.Errorf("platform must be one of: %s", strings.Join(AllowedPlatforms, ", "))
}

func validateURL(url string) error {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("url must start with http:// or https://")
	}
	return nil
}

func validateQualityScore(score *float64) error {
	if score != nil && (*score < 0 || *score > 10) {
		return fmt.Errorf("quality_score must be between 0 and 10")
	}
	return nil
}

func validateContentType(contentType string) error {
	if contentType == "" || len(contentType) > 50 {
		return fmt.Errorf("content_type must be between 1 and 50 characters")
	}
	lower := strings.ToLower(contentType)
	for _, allowed := range AllowedContentTypes {
		if lower == allowed {
			return nil
		}
	}
	return fmt.Errorf("content_type must be one of: %s", strings.Join(AllowedContentTypes, ", "))
}

func validateSlug(slug string) error {
	if slug == "" || len(slug) > 255 {
		return fmt.Errorf("slug must be between 1 and 255 characters")
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("slug must contain only lowercase letters, numbers, and hyphens")
	}
	return nil
}
