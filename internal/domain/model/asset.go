package model

// Asset is one uploaded video clip belonging to a project. The storage object
// itself lives in S3-compatible storage; the backend only tracks its locator.
// Scene label/score are written by the analysis worker; the user label can
// override the detected scene.
type Asset struct {
	ID            string  `json:"id"`
	ProjectID     string  `json:"project_id"`
	OssURL        string  `json:"oss_url"`
	StorageBucket string  `json:"storage_bucket,omitempty"`
	StorageKey    string  `json:"storage_key,omitempty"`
	Duration      float64 `json:"duration"`
	SceneLabel    string  `json:"scene_label,omitempty"`
	SceneScore    float64 `json:"scene_score,omitempty"`
	UserLabel     string  `json:"user_label,omitempty"`
	SortOrder     int     `json:"sort_order"`
	Deleted       bool    `json:"-"`
}

// scenePriority orders assets into a natural viewing sequence once analysis
// has labeled them: entrance first, then living spaces, then the rest.
var scenePriority = map[string]int{
	"小区门头": 10,
	"小区环境": 20,
	"客厅":   30,
	"餐厅":   40,
	"厨房":   50,
	"卧室":   60,
	"卫生间":  70,
	"阳台":   80,
	"走廊":   90,
}

// ScenePriority returns the timeline weight for an asset's scene label.
// Unlabeled assets sink to the end; unknown labels sort after known ones.
func ScenePriority(label string) int {
	if label == "" {
		return 999
	}
	if p, ok := scenePriority[label]; ok {
		return p
	}
	return 100
}
