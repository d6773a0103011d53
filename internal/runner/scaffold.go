package runner

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/kartoffeldruck/internal/config"
	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
	"git.home.luguber.info/inful/kartoffeldruck/internal/frontmatter"
	"git.home.luguber.info/inful/kartoffeldruck/internal/output"
)

const scaffoldDescriptor = `# kartoffeldruck site descriptor
locals:
  title: My site
  layout: default

collections:
  posts:
    source: "posts/*.md"
    exclude: {draft: true}
    sortBy: title

generate:
  - name: posts
    collection: posts
    dest: ":name/index.html"
  - name: index
    source: index.html
    dest: ":page/index.html"
    items: posts
    paginate: 10
`

const scaffoldLayout = `<!doctype html>
<html>
  <head>
    <title>{{ title }}</title>
    <link rel="stylesheet" href="{{ assets }}/style.css">
  </head>
  <body>
    {% block item_body %}{% endblock %}
  </body>
</html>
`

const scaffoldIndex = `<ul>
{% for item in items %}  <li><a href="{{ relative(item.name) }}">{{ item.title }}</a></li>
{% endfor %}</ul>
{% if page.idx > 0 %}<a href="{{ relative(page.previousRef) }}">newer</a>{% endif %}
{% if page.nextRef %}<a href="{{ relative(page.nextRef) }}">older</a>{% endif %}
`

// Scaffold writes a minimal site into dir and returns the written paths
// relative to dir. An existing descriptor is only replaced when force is set.
func Scaffold(dir string, force bool) ([]string, error) {
	descriptor := filepath.Join(dir, config.DefaultFile)
	if _, err := os.Stat(descriptor); err == nil && !force {
		return nil, errors.ConfigError("descriptor already exists; use --force to overwrite").
			WithContext("path", descriptor).
			Build()
	}

	index, err := frontmatter.Compose(map[string]any{"title": "Home"}, scaffoldIndex)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to compose page").Build()
	}
	post, err := frontmatter.Compose(map[string]any{
		"title": "Hello world",
		"tags":  []any{"kartoffeldruck"},
	}, "Welcome to **kartoffeldruck**.\n")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to compose page").Build()
	}

	files := []struct {
		path     string
		contents []byte
	}{
		{config.DefaultFile, []byte(scaffoldDescriptor)},
		{"templates/default.html", []byte(scaffoldLayout)},
		{"pages/index.html", index},
		{"pages/posts/hello-world.md", post},
		{"assets/style.css", []byte("body { font-family: sans-serif; }\n")},
	}

	site := output.NewDir(dir)
	written := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := site.Write(f.path, f.contents); err != nil {
			return written, err
		}
		written = append(written, f.path)
	}
	return written, nil
}
