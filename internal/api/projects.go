package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hackdesk/hackdesk/internal/managers"
	"github.com/hackdesk/hackdesk/internal/models"
	"github.com/hackdesk/hackdesk/internal/perms"
)

func (v *View) registerProjectHandlers(g *echo.Group) {
	g.GET(
		"/v0/hackathons/:hackathon/projects", v.observeProjects,
		v.extractAuth(v.sessionAuth), v.extractHackathon,
		v.requirePermission(perms.ObserveProjectsRole),
	)
	g.GET(
		"/v0/hackathons/:hackathon/gallery", v.observeGallery,
		v.extractAuth(v.sessionAuth, v.guestAuth), v.extractHackathon,
		v.requirePermission(perms.ObserveGalleryRole),
	)
	g.GET(
		"/v0/hackathons/:hackathon/teams/:team/project", v.observeProject,
		v.extractAuth(v.sessionAuth, v.guestAuth),
		v.extractHackathon, v.extractTeam, v.extractProject,
		v.requirePermission(perms.ObserveProjectRole),
	)
	g.POST(
		"/v0/hackathons/:hackathon/teams/:team/project", v.createProject,
		v.extractAuth(v.sessionAuth), v.extractHackathon, v.extractTeam,
		v.requirePermission(perms.CreateProjectRole),
	)
	g.PATCH(
		"/v0/hackathons/:hackathon/teams/:team/project", v.updateProject,
		v.extractAuth(v.sessionAuth),
		v.extractHackathon, v.extractTeam, v.extractProject,
		v.requirePermission(perms.UpdateProjectRole),
	)
	g.DELETE(
		"/v0/hackathons/:hackathon/teams/:team/project", v.deleteProject,
		v.extractAuth(v.sessionAuth),
		v.extractHackathon, v.extractTeam, v.extractProject,
		v.requirePermission(perms.DeleteProjectRole),
	)
	g.POST(
		"/v0/hackathons/:hackathon/teams/:team/project/submit",
		v.submitProject,
		v.extractAuth(v.sessionAuth),
		v.extractHackathon, v.extractTeam, v.extractProject,
		v.requirePermission(perms.SubmitProjectRole),
	)
	g.GET(
		"/v0/hackathons/:hackathon/teams/:team/project/files",
		v.observeProjectFiles,
		v.extractAuth(v.sessionAuth, v.guestAuth),
		v.extractHackathon, v.extractTeam, v.extractProject,
		v.requirePermission(perms.ObserveProjectRole),
	)
	g.POST(
		"/v0/hackathons/:hackathon/teams/:team/project/files",
		v.createProjectFile,
		v.extractAuth(v.sessionAuth),
		v.extractHackathon, v.extractTeam, v.extractProject,
		v.requirePermission(perms.UpdateProjectRole),
	)
	g.DELETE(
		"/v0/hackathons/:hackathon/teams/:team/project/files/:file",
		v.deleteProjectFile,
		v.extractAuth(v.sessionAuth),
		v.extractHackathon, v.extractTeam, v.extractProject,
		v.extractProjectFile,
		v.requirePermission(perms.UpdateProjectRole),
	)
}

type Project struct {
	ID          int64  `json:"id"`
	HackathonID int64  `json:"hackathon_id"`
	TeamID      int64  `json:"team_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	RepoURL     string `json:"repo_url,omitempty"`
	DemoURL     string `json:"demo_url,omitempty"`
	CreateTime  int64  `json:"create_time,omitempty"`
	SubmitTime  int64  `json:"submit_time,omitempty"`
}

type Projects struct {
	Projects []Project `json:"projects"`
}

type GalleryProject struct {
	Project
	Team Team `json:"team"`
}

type Gallery struct {
	Projects []GalleryProject `json:"projects"`
}

type ProjectFile struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id"`
	FileID    int64  `json:"file_id"`
	Name      string `json:"name"`
}

type ProjectFiles struct {
	Files []ProjectFile `json:"files"`
}

func makeProject(project models.Project) Project {
	return Project{
		ID:          project.ID,
		HackathonID: project.HackathonID,
		TeamID:      project.TeamID,
		Title:       project.Title,
		Description: string(project.Description),
		RepoURL:     string(project.RepoURL),
		DemoURL:     string(project.DemoURL),
		CreateTime:  project.CreateTime,
		SubmitTime:  int64(project.SubmitTime),
	}
}

func makeProjectFile(file models.ProjectFile) ProjectFile {
	return ProjectFile{
		ID:        file.ID,
		ProjectID: file.ProjectID,
		FileID:    file.FileID,
		Name:      file.Name,
	}
}

func (v *View) observeProjects(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	if err := syncStore(c, v.core.Projects); err != nil {
		return err
	}
	projects, err := v.core.Projects.FindByHackathon(
		getContext(c), hackathonCtx.Hackathon.ID,
	)
	if err != nil {
		return err
	}
	defer func() { _ = projects.Close() }()
	var resp Projects
	for projects.Next() {
		resp.Projects = append(resp.Projects, makeProject(projects.Row()))
	}
	if err := projects.Err(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (v *View) observeGallery(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	if !hackathonCtx.HackathonConfig.GalleryOpen &&
		!hackathonCtx.HasPermission(perms.ObserveProjectsRole) {
		return errorResponse{
			Code:    http.StatusForbidden,
			Message: localize(c, "Gallery is not open."),
		}
	}
	if err := syncStore(c, v.core.Projects); err != nil {
		return err
	}
	projects, err := v.core.Projects.FindByHackathon(
		getContext(c), hackathonCtx.Hackathon.ID,
	)
	if err != nil {
		return err
	}
	defer func() { _ = projects.Close() }()
	var resp Gallery
	for projects.Next() {
		project := projects.Row()
		if !project.Submitted() {
			continue
		}
		team, err := v.core.Teams.Get(getContext(c), project.TeamID)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return err
		}
		resp.Projects = append(resp.Projects, GalleryProject{
			Project: makeProject(project),
			Team:    makeTeam(hackathonCtx, team),
		})
	}
	if err := projects.Err(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (v *View) observeProject(c echo.Context) error {
	project, ok := c.Get(projectKey).(models.Project)
	if !ok {
		return fmt.Errorf("project not extracted")
	}
	return c.JSON(http.StatusOK, makeProject(project))
}

type updateProjectForm struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	RepoURL     *string `json:"repo_url"`
	DemoURL     *string `json:"demo_url"`
}

func (f *updateProjectForm) Update(
	c echo.Context, project *models.Project,
) error {
	errors := errorFields{}
	if f.Title != nil {
		if len(*f.Title) < 1 {
			errors["title"] = errorField{
				Message: localize(c, "Title is too short."),
			}
		} else if len(*f.Title) > 128 {
			errors["title"] = errorField{
				Message: localize(c, "Title is too long."),
			}
		}
		project.Title = *f.Title
	}
	if f.Description != nil {
		project.Description = NString(*f.Description)
	}
	if f.RepoURL != nil {
		project.RepoURL = NString(*f.RepoURL)
	}
	if f.DemoURL != nil {
		project.DemoURL = NString(*f.DemoURL)
	}
	if len(errors) > 0 {
		return errorResponse{
			Code:          http.StatusBadRequest,
			Message:       localize(c, "Form has invalid fields."),
			InvalidFields: errors,
		}
	}
	return nil
}

type createProjectForm updateProjectForm

func (f *createProjectForm) Update(
	c echo.Context, project *models.Project,
) error {
	if f.Title == nil {
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Form has invalid fields."),
			InvalidFields: errorFields{
				"title": errorField{
					Message: localize(c, "Title is required."),
				},
			},
		}
	}
	return (*updateProjectForm)(f).Update(c, project)
}

// canManageProject reports that account can modify project of team.
//
// Team members manage own project, organizers manage any.
func canManageProject(ctx *managers.HackathonContext, team models.Team) bool {
	return ownTeam(ctx, team) ||
		ctx.HasPermission(perms.ObserveProjectsRole)
}

func (v *View) createProject(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	team, ok := c.Get(teamKey).(models.Team)
	if !ok {
		return fmt.Errorf("team not extracted")
	}
	if !canManageProject(hackathonCtx, team) {
		return errorResponse{
			Code:    http.StatusForbidden,
			Message: localize(c, "Account is not a member of team."),
		}
	}
	var form createProjectForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return c.NoContent(http.StatusBadRequest)
	}
	project := models.Project{
		HackathonID: hackathonCtx.Hackathon.ID,
		TeamID:      team.ID,
		CreateTime:  getNow(c).Unix(),
	}
	if err := form.Update(c, &project); err != nil {
		return err
	}
	if _, err := v.core.Projects.GetByTeam(
		getContext(c), team.ID,
	); err == nil {
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Team already has project."),
		}
	} else if err != sql.ErrNoRows {
		return err
	}
	if err := v.core.Projects.Create(getContext(c), &project); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, makeProject(project))
}

func (v *View) updateProject(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	team, ok := c.Get(teamKey).(models.Team)
	if !ok {
		return fmt.Errorf("team not extracted")
	}
	project, ok := c.Get(projectKey).(models.Project)
	if !ok {
		return fmt.Errorf("project not extracted")
	}
	if !canManageProject(hackathonCtx, team) {
		return errorResponse{
			Code:    http.StatusForbidden,
			Message: localize(c, "Account is not a member of team."),
		}
	}
	var form updateProjectForm
	if err := c.Bind(&form); err != nil {
		c.Logger().Warn(err)
		return c.NoContent(http.StatusBadRequest)
	}
	if err := form.Update(c, &project); err != nil {
		return err
	}
	if err := v.core.Projects.Update(getContext(c), project); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, makeProject(project))
}

func (v *View) deleteProject(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	team, ok := c.Get(teamKey).(models.Team)
	if !ok {
		return fmt.Errorf("team not extracted")
	}
	project, ok := c.Get(projectKey).(models.Project)
	if !ok {
		return fmt.Errorf("project not extracted")
	}
	if !canManageProject(hackathonCtx, team) {
		return errorResponse{
			Code:    http.StatusForbidden,
			Message: localize(c, "Account is not a member of team."),
		}
	}
	if err := v.core.Projects.Delete(getContext(c), project.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, makeProject(project))
}

func (v *View) submitProject(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	team, ok := c.Get(teamKey).(models.Team)
	if !ok {
		return fmt.Errorf("team not extracted")
	}
	project, ok := c.Get(projectKey).(models.Project)
	if !ok {
		return fmt.Errorf("project not extracted")
	}
	if !canManageProject(hackathonCtx, team) {
		return errorResponse{
			Code:    http.StatusForbidden,
			Message: localize(c, "Account is not a member of team."),
		}
	}
	if hackathonCtx.Stage != managers.HackathonStarted {
		return errorResponse{
			Code:    http.StatusForbidden,
			Message: localize(c, "Submissions are closed."),
		}
	}
	if project.Submitted() {
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Project already submitted."),
		}
	}
	project.SubmitTime = models.NInt64(getNow(c).Unix())
	if err := v.core.Projects.Update(getContext(c), project); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, makeProject(project))
}

func (v *View) observeProjectFiles(c echo.Context) error {
	project, ok := c.Get(projectKey).(models.Project)
	if !ok {
		return fmt.Errorf("project not extracted")
	}
	if err := syncStore(c, v.core.ProjectFiles); err != nil {
		return err
	}
	files, err := v.core.ProjectFiles.FindByProject(getContext(c), project.ID)
	if err != nil {
		return err
	}
	defer func() { _ = files.Close() }()
	var resp ProjectFiles
	for files.Next() {
		resp.Files = append(resp.Files, makeProjectFile(files.Row()))
	}
	if err := files.Err(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

type createProjectFileForm struct {
	Name string      `form:"name"`
	File *FileReader `form:"-"`
}

func (f *createProjectFileForm) Parse(c echo.Context) error {
	if err := c.Bind(f); err != nil {
		c.Logger().Warn(err)
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Invalid form."),
		}
	}
	formFile, err := c.FormFile("file")
	if err != nil {
		return errorResponse{
			Code:    http.StatusBadRequest,
			Message: localize(c, "Form has invalid fields."),
			InvalidFields: errorFields{
				"file": errorField{
					Message: localize(c, "File is required."),
				},
			},
		}
	}
	file, err := managers.NewMultipartFileReader(formFile)
	if err != nil {
		return err
	}
	f.File = file
	if f.Name == "" {
		f.Name = formFile.Filename
	}
	return nil
}

func (v *View) createProjectFile(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	team, ok := c.Get(teamKey).(models.Team)
	if !ok {
		return fmt.Errorf("team not extracted")
	}
	project, ok := c.Get(projectKey).(models.Project)
	if !ok {
		return fmt.Errorf("project not extracted")
	}
	if !canManageProject(hackathonCtx, team) {
		return errorResponse{
			Code:    http.StatusForbidden,
			Message: localize(c, "Account is not a member of team."),
		}
	}
	if v.files == nil {
		return errorResponse{
			Code:    http.StatusServiceUnavailable,
			Message: localize(c, "File storage is not configured."),
		}
	}
	var form createProjectFileForm
	if err := form.Parse(c); err != nil {
		return err
	}
	file, err := v.files.UploadFile(getContext(c), form.File)
	if err != nil {
		return err
	}
	projectFile := models.ProjectFile{
		ProjectID: project.ID,
		FileID:    file.ID,
		Name:      form.Name,
	}
	if err := v.core.WrapTx(getContext(c), func(ctx context.Context) error {
		if err := v.files.ConfirmUploadFile(ctx, &file); err != nil {
			return err
		}
		return v.core.ProjectFiles.Create(ctx, &projectFile)
	}, sqlRepeatableRead); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, makeProjectFile(projectFile))
}

func (v *View) deleteProjectFile(c echo.Context) error {
	hackathonCtx, ok := c.Get(hackathonCtxKey).(*managers.HackathonContext)
	if !ok {
		return fmt.Errorf("hackathon not extracted")
	}
	team, ok := c.Get(teamKey).(models.Team)
	if !ok {
		return fmt.Errorf("team not extracted")
	}
	projectFile, ok := c.Get(projectFileKey).(models.ProjectFile)
	if !ok {
		return fmt.Errorf("project file not extracted")
	}
	if !canManageProject(hackathonCtx, team) {
		return errorResponse{
			Code:    http.StatusForbidden,
			Message: localize(c, "Account is not a member of team."),
		}
	}
	if err := v.core.ProjectFiles.Delete(
		getContext(c), projectFile.ID,
	); err != nil {
		return err
	}
	if v.files != nil {
		if err := v.files.DeleteFile(getContext(c), projectFile.FileID); err != nil {
			c.Logger().Warn("Unable to delete file: ", err)
		}
	}
	return c.JSON(http.StatusOK, makeProjectFile(projectFile))
}

func (v *View) extractProject(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		team, ok := c.Get(teamKey).(models.Team)
		if !ok {
			return fmt.Errorf("team not extracted")
		}
		if err := syncStore(c, v.core.Projects); err != nil {
			return err
		}
		project, err := v.core.Projects.GetByTeam(getContext(c), team.ID)
		if err != nil {
			if err == sql.ErrNoRows {
				return errorResponse{
					Code:    http.StatusNotFound,
					Message: localize(c, "Project not found."),
				}
			}
			return err
		}
		c.Set(projectKey, project)
		return next(c)
	}
}

func (v *View) extractProjectFile(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		project, ok := c.Get(projectKey).(models.Project)
		if !ok {
			return fmt.Errorf("project not extracted")
		}
		id, err := strconv.ParseInt(c.Param("file"), 10, 64)
		if err != nil {
			c.Logger().Warn(err)
			return errorResponse{
				Code:    http.StatusBadRequest,
				Message: localize(c, "Invalid file ID."),
			}
		}
		if err := syncStore(c, v.core.ProjectFiles); err != nil {
			return err
		}
		projectFile, err := v.core.ProjectFiles.Get(getContext(c), id)
		if err != nil || projectFile.ProjectID != project.ID {
			if err != nil && err != sql.ErrNoRows {
				return err
			}
			return errorResponse{
				Code:    http.StatusNotFound,
				Message: localize(c, "File not found."),
			}
		}
		c.Set(projectFileKey, projectFile)
		return next(c)
	}
}
