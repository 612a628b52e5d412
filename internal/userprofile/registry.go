package userprofile

// DefaultUseCases is the built-in registry of named use cases. A deployment
// may extend this with its own config-loaded set; the pipeline consults this
// variable only when its caller passes no registry of its own
// (recommend.Options.UseCaseRegistry), so tests can substitute their own.
var DefaultUseCases = map[string]UseCase{
	"portrait-photography": {ID: "portrait-photography", RequiredModalities: []Modality{ModalityImage}},
	"concept-art":          {ID: "concept-art", RequiredModalities: []Modality{ModalityImage}},
	"product-demo-video":   {ID: "product-demo-video", RequiredModalities: []Modality{ModalityImage, ModalityVideo}},
	"social-video-clips":   {ID: "social-video-clips", RequiredModalities: []Modality{ModalityVideo}},
	"voice-synthesis":      {ID: "voice-synthesis", RequiredModalities: []Modality{ModalityAudio}},
	"3d-asset-prototyping": {ID: "3d-asset-prototyping", RequiredModalities: []Modality{Modality3D}},
}
