// pkg/model/artifact.go
package model

// DataIngestionArtifact records the files written by the ingestion stage
type DataIngestionArtifact struct {
	RawFilePath   string `json:"raw_file_path"`
	TrainFilePath string `json:"train_file_path"`
	TestFilePath  string `json:"test_file_path"`
}

// DataTransformationArtifact records the files written by the transformation stage
type DataTransformationArtifact struct {
	TransformedTrainFilePath string `json:"transformed_train_file_path"`
	TransformedTestFilePath  string `json:"transformed_test_file_path"`
	PreprocessorFilePath     string `json:"preprocessor_file_path"`
	LabelEncoderFilePath     string `json:"label_encoder_file_path"`
	ManifestFilePath         string `json:"manifest_file_path"`
}
