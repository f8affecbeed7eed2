// Package prompt renders the generation prompt from assembled context
// and the caller's instruction.
package prompt

import (
	"fmt"
	"strings"
	"text/template"
)

const codeGenTemplate = `
You are a senior Java backend engineer working in a Spring Boot-based microservices architecture.

You are provided with relevant project context and a functional requirement:

{{.Context}}

Write detailed, enterprise-grade Java code using **Spring Boot**, applying the following standards:

1. Generate a complete business logic class (e.g., service or controller) using Spring annotations.
2. Use DTOs and validation annotations appropriately.
3. Handle exceptions using Spring's @ControllerAdvice or inline try-catch.
4. Include proper logging with SLF4J (LoggerFactory).
5. Adhere to clean architecture: service, repository, model separation.
6. Java 11+ features (streams, var, Optional) can be used where relevant.

Requirement:

{{.Task}}

Also, generate a comprehensive **JUnit 5** test class that:
- Mocks dependencies with Mockito
- Tests both normal and edge-case scenarios
- Uses @SpringBootTest or @WebMvcTest as applicable

Output only the source code blocks in Java.
`

var tmpl = template.Must(template.New("codegen").Parse(codeGenTemplate))

// Render builds the full prompt from context text and task instruction.
func Render(context, task string) (string, error) {
	var sb strings.Builder
	err := tmpl.Execute(&sb, struct {
		Context string
		Task    string
	}{Context: context, Task: task})
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return sb.String(), nil
}
