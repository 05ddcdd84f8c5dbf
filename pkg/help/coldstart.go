package help

const ColdstartYAML = `# recipesmd Quick Start

first_run:
  register: |
    # The first account becomes the admin.
    recipesmd register --username alice

  login: |
    recipesmd login --username alice

commands:
  add_recipe: |
    recipesmd add "https://example.com/best-shakshuka"

  list: |
    recipesmd list

  filtered_list: |
    recipesmd list meal=dinner time=under-30
    recipesmd list diet=vegetarian tags=spicy

  show: |
    recipesmd show best-shakshuka
    recipesmd show --html best-shakshuka

  share_intake: |
    # What the installed share target does with a shared page:
    recipesmd share --url "https://example.com/pie" --title "Best Pie" --submit

  offline: |
    recipesmd sync
    recipesmd list --offline
    recipesmd show --offline best-shakshuka

  render_local_file: |
    recipesmd render my-recipe.md

facets:
  keys: "meal, category, ethnicity, diet, tags, time"
  time_buckets: "under-30, 30-60, 60-120, 120-plus"

config: |
  # ~/.config or alongside the binary; see --config.
  server_url: "http://localhost:8000"
  cache_dir: "~/.cache/recipesmd"
  sync_workers: 4
`
