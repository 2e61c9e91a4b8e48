package gcloud

import (
	"gopkg.in/yaml.v3"

	apperrors "github.com/ynishi/propel/internal/errors"
)

// ServiceStatus is the decoded `status` block of a Cloud Run service as
// printed by `gcloud run services describe --format yaml(status)`.
type ServiceStatus struct {
	URL                       string             `yaml:"url"`
	LatestReadyRevisionName   string             `yaml:"latestReadyRevisionName"`
	LatestCreatedRevisionName string             `yaml:"latestCreatedRevisionName"`
	ObservedGeneration        int                `yaml:"observedGeneration"`
	Conditions                []ServiceCondition `yaml:"conditions"`
}

// ServiceCondition is one entry of the status.conditions list.
type ServiceCondition struct {
	Type    string `yaml:"type"`
	Status  string `yaml:"status"`
	Reason  string `yaml:"reason"`
	Message string `yaml:"message"`
}

// ReadyCondition returns the Ready condition when present.
func (s *ServiceStatus) ReadyCondition() (ServiceCondition, bool) {
	for _, c := range s.Conditions {
		if c.Type == "Ready" {
			return c, true
		}
	}
	return ServiceCondition{}, false
}

type serviceDescription struct {
	Status ServiceStatus `yaml:"status"`
}

func parseServiceStatus(raw string) (*ServiceStatus, error) {
	var desc serviceDescription
	if err := yaml.Unmarshal([]byte(raw), &desc); err != nil {
		return nil, apperrors.ErrRemoteUnknown("failed to parse service status", err)
	}
	return &desc.Status, nil
}
