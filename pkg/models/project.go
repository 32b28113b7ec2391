package models

// Project groups families analysed together.
type Project struct {
	ProjectGUID      string `json:"projectGuid" mapstructure:"projectGuid"`
	Name             string `json:"name" mapstructure:"name"`
	Description      string `json:"description,omitempty" mapstructure:"description"`
	GenomeVersion    string `json:"genomeVersion,omitempty" mapstructure:"genomeVersion"`
	IsMMEEnabled     bool   `json:"isMmeEnabled" mapstructure:"isMmeEnabled"`
	CanEdit          bool   `json:"canEdit" mapstructure:"canEdit"`
	CreatedDate      string `json:"createdDate,omitempty" mapstructure:"createdDate"`
	LastModifiedDate string `json:"lastModifiedDate,omitempty" mapstructure:"lastModifiedDate"`
}

// Family is a set of related individuals within a project.
type Family struct {
	FamilyGUID      string `json:"familyGuid" mapstructure:"familyGuid"`
	ProjectGUID     string `json:"projectGuid" mapstructure:"projectGuid"`
	FamilyID        string `json:"familyId" mapstructure:"familyId"`
	DisplayName     string `json:"displayName,omitempty" mapstructure:"displayName"`
	AnalysisStatus  string `json:"analysisStatus,omitempty" mapstructure:"analysisStatus"`
	AssignedAnalyst string `json:"assignedAnalyst,omitempty" mapstructure:"assignedAnalyst"`
}
