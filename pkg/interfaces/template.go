package interfaces

import "io"

// TemplateRenderer abstracts the theme engine used to wrap rendered Markdown
// in page chrome. The pipeline treats it as a pure function: template name
// plus data in, final document out.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
}
